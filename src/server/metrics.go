package server

import (
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_http_requests_total",
		Help: "HTTP requests served, by route and status.",
	}, []string{"route", "status"})

	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_websocket_clients",
		Help: "Connected websocket clients.",
	})

	registerOnce sync.Once
)

func InitMetrics(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(HTTPRequests)
		reg.MustRegister(WebsocketClients)
	})
}

// -----------------------------------------------------------------------------

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
