package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"market-dashboard/src/analysis"
	"market-dashboard/src/fibonacci"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
	"market-dashboard/src/state"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the state holders the HTTP surface drives.
type Dependencies struct {
	Groups     *state.GroupsStore
	Charts     *state.ChartRegistry
	Indicators *state.IndicatorsLoader
	Toggles    *state.IndicatorToggles
	Fibonacci  *fibonacci.Sessions
	Facade     *analysis.ChartFacade

	// Accounts backs the /api/auth and /api/admin routes. They answer 503
	// when it is nil.
	Accounts interfaces.IAccountBackend
}

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	deps   Dependencies
	engine *gin.Engine
	http   *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MDashboardEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Local cache
	views      map[string]models.MChartView
	lastUpdate int64
	stateMutex sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, deps Dependencies, logger *logger.Logger) *DashboardServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	InitMetrics(prometheus.DefaultRegisterer)
	analysis.InitMetrics(prometheus.DefaultRegisterer)

	s := &DashboardServer{
		Config:  cfg,
		Logger:  logger,
		deps:    deps,
		engine:  gin.New(),
		clients: make(map[*Client]struct{}),
		// Buffered so handlers never wait on the hub
		broadcast:  make(chan *models.MDashboardEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		views:      make(map[string]models.MChartView),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(requestMetrics())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control", "X-Requested-With", sessionHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	s.setupRoutes()
	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.engine,
	}

	go s.handleWebsockets()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/health", s.getHealth)
		api.GET("/metrics", s.getMetrics)
		api.GET("/config", s.getConfig)
		api.GET("/time-range", s.getTimeRange)

		api.GET("/groups", s.getGroups)
		api.GET("/groups/:name", s.getGroup)
		api.POST("/groups/refresh", s.refreshGroups)
		api.GET("/tickers", s.getTickers)

		api.GET("/charts/:group", s.getChart)
		api.GET("/charts/:group/volume", s.getVolumeBreakdown)

		api.GET("/indicators", s.getLoadedIndicators)
		api.POST("/indicators/load", s.loadIndicators)
		api.POST("/indicators/refresh", s.refreshIndicators)
		api.GET("/indicators/:ticker", s.getIndicators)
		api.GET("/indicators/:ticker/:indicator/:period", s.getIndicator)
		api.POST("/indicators/:ticker/toggle", s.toggleIndicator)

		fib := api.Group("/fibonacci")
		{
			fib.GET("", s.getFibonacci)
			fib.POST("/start", s.startFibonacci)
			fib.POST("/points", s.addFibonacciPoint)
			fib.POST("/cancel", s.cancelFibonacci)
			fib.DELETE("/:id", s.removeRetracement)
			fib.DELETE("", s.clearFibonacci)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/register", s.registerUser)
			auth.GET("/me", s.me)
			auth.GET("/profile", s.profile)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/upload", s.uploadData)
			admin.POST("/reset", s.resetData)
			admin.PUT("/indicators", s.setIndicators)

			admin.POST("/invites", s.createInvite)
			admin.GET("/invites", s.listInvites)
			admin.GET("/invites/:code/validate", s.validateInvite)
			admin.DELETE("/invites/:id", s.deleteInvite)

			admin.GET("/users", s.listUsers)
			admin.DELETE("/users/:id", s.deleteUser)
			admin.POST("/users/:id/toggle-active", s.toggleUserActive)
			admin.POST("/users/:id/make-admin", s.makeUserAdmin)
		}
	}

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mostly for tests.
func (s *DashboardServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *DashboardServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.http.Shutdown(ctx)
	})
	return err
}
