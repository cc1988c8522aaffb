package server

import (
	"net/http"
	"strconv"

	"market-dashboard/src/analysis/core"
	"market-dashboard/src/fibonacci"
	"market-dashboard/src/models"
	"market-dashboard/src/state"
	"market-dashboard/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	timestamp := s.lastUpdate
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
		"loaders":       s.deps.Charts.Status(),
		"drawing":       s.deps.Fibonacci.Drawing(),
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Facade.Metrics())
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fibonacci_levels":  s.deps.Fibonacci.Levels(),
		"fibonacci_palette": core.RetracementPalette,
		"base_colors":       utils.BaseColors,
		"default_mic":       s.Config.Calendar.DefaultMIC,
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getTimeRange(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end are required"})
		return
	}
	if !utils.IsValidIsoDate(start) || !utils.IsValidIsoDate(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be YYYY-MM-DD dates"})
		return
	}

	var (
		times []int64
		err   error
	)
	if c.Query("trading") == "true" {
		times, err = utils.TradingTimeRange(c.Query("ticker"), s.Config.Calendar.DefaultMIC, start, end)
	} else {
		times, err = utils.CreateTimeRange(start, end)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"start": start, "end": end, "times": times})
}

// -----------------------------------------------------------------------------
// Groups
// -----------------------------------------------------------------------------

func (s *DashboardServer) getGroups(c *gin.Context) {
	groups, err := s.deps.Groups.Groups(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getGroup(c *gin.Context) {
	info, err := s.deps.Groups.Group(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// -----------------------------------------------------------------------------

// getTickers asks the backend for its ticker list and falls back to the
// tickers of the cached group catalogue.
func (s *DashboardServer) getTickers(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		tickers []string
		err     error
	)
	if s.deps.Accounts != nil {
		tickers, err = s.deps.Accounts.Tickers(ctx)
	} else {
		tickers, err = s.deps.Groups.Tickers(ctx)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickers": tickers})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) refreshGroups(c *gin.Context) {
	groups, err := s.deps.Groups.Refresh(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	s.Broadcast(s.newEvent(models.EventGroupsRefreshed, "", "", groups))
	c.JSON(http.StatusOK, groups)
}

// -----------------------------------------------------------------------------
// Charts
// -----------------------------------------------------------------------------

func (s *DashboardServer) getChart(c *gin.Context) {
	group := c.Param("group")

	if c.Query("cached") == "true" {
		if view, ok := s.deps.Charts.Current(group); ok {
			c.JSON(http.StatusOK, sanitizeView(view))
			return
		}
	}

	view, err := s.deps.Charts.Load(c.Request.Context(), viewerSession(c), group)
	if err != nil {
		writeError(c, err)
		return
	}

	s.UpdateChartView(group, view)
	clean := sanitizeView(view)
	s.Broadcast(s.newEvent(models.EventChartLoaded, group, "", clean))
	c.JSON(http.StatusOK, clean)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getVolumeBreakdown(c *gin.Context) {
	group := c.Param("group")
	at, err := strconv.ParseInt(c.Query("time"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time must be an integer"})
		return
	}

	view, ok := s.cachedView(group)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not loaded"})
		return
	}
	breakdown, ok := core.VolumeBreakdownAt(view.VolumeStack, at)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no volume at that time"})
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// -----------------------------------------------------------------------------
// Indicators
// -----------------------------------------------------------------------------

func (s *DashboardServer) getIndicators(c *gin.Context) {
	ticker := c.Param("ticker")
	ctx := c.Request.Context()

	settings, err := s.deps.Indicators.Settings(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	s.deps.Toggles.ApplySettings(settings)

	if err := s.deps.Indicators.LoadTicker(ctx, ticker, s.colorsFor(ticker)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker":     ticker,
		"settings":   settings,
		"toggles":    s.deps.Toggles.Get(ticker),
		"indicators": sanitizeIndicators(s.deps.Indicators.Indicators(ticker)),
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getIndicator(c *gin.Context) {
	period, err := strconv.Atoi(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be an integer"})
		return
	}
	key := state.IndicatorKey(c.Param("ticker"), c.Param("indicator"), period)
	data, ok := s.deps.Indicators.Indicator(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "indicator " + key + " is not loaded"})
		return
	}
	c.JSON(http.StatusOK, sanitizeIndicators([]models.MIndicatorData{data})[0])
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getLoadedIndicators(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tickers": s.deps.Indicators.LoadedTickers()})
}

// -----------------------------------------------------------------------------

type loadIndicatorsRequest struct {
	Group   string   `json:"group"`
	Tickers []string `json:"tickers" binding:"required,min=1"`
}

// loadIndicators fetches the series of several tickers, coloured by the
// palette of group when that chart is loaded.
func (s *DashboardServer) loadIndicators(c *gin.Context) {
	var req loadIndicatorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := s.deps.Indicators.LoadIndicators(ctx, req.Tickers, s.groupColors(req.Group)); err != nil {
		writeError(c, err)
		return
	}
	if settings, err := s.deps.Indicators.Settings(ctx); err == nil {
		s.deps.Toggles.ApplySettings(settings)
	}

	out := make(map[string][]models.MIndicatorData, len(req.Tickers))
	for _, ticker := range req.Tickers {
		out[ticker] = sanitizeIndicators(s.deps.Indicators.Indicators(ticker))
	}
	c.JSON(http.StatusOK, gin.H{
		"loaded":     s.deps.Indicators.LoadedTickers(),
		"indicators": out,
	})
}

// -----------------------------------------------------------------------------

// refreshIndicators drops every loaded series and refetches the settings.
func (s *DashboardServer) refreshIndicators(c *gin.Context) {
	settings, err := s.deps.Indicators.Refresh(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	s.deps.Toggles.ApplySettings(settings)
	s.Broadcast(s.newEvent(models.EventIndicators, "", "", gin.H{"settings": settings}))
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) toggleIndicator(c *gin.Context) {
	ticker := c.Param("ticker")

	var toggle models.MIndicatorToggle
	if err := c.ShouldBindJSON(&toggle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if settings, err := s.deps.Indicators.Settings(c.Request.Context()); err == nil {
		s.deps.Toggles.ApplySettings(settings)
	}

	ind, err := s.deps.Toggles.Set(ticker, toggle)
	if err != nil {
		writeError(c, err)
		return
	}
	s.Broadcast(s.newEvent(models.EventIndicators, "", ticker, ind))
	c.JSON(http.StatusOK, ind)
}

// -----------------------------------------------------------------------------
// Fibonacci
// -----------------------------------------------------------------------------

// drawing returns the drawing session of the requesting viewer on group.
func (s *DashboardServer) drawing(c *gin.Context, group string) *fibonacci.Session {
	return s.deps.Fibonacci.For(state.ViewerKey(viewerSession(c), group))
}

func (s *DashboardServer) fibonacciState(c *gin.Context, group string) gin.H {
	session := s.drawing(c, group)
	geometry := sanitizeGeometry(session.Geometry(s.referenceTimes(group)))

	// Flat pair lists for renderers drawing one series per retracement.
	segments := make(map[string][]models.MTimeValue, len(geometry))
	for _, g := range geometry {
		segments[g.ID] = core.FlattenGeometry(g)
	}

	return gin.H{
		"state":    session.Snapshot(),
		"geometry": geometry,
		"segments": segments,
	}
}

func (s *DashboardServer) publishFibonacci(c *gin.Context) {
	group := c.Query("group")
	body := s.fibonacciState(c, group)
	s.Broadcast(s.newEvent(models.EventFibonacci, group, "", body))
	c.JSON(http.StatusOK, body)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getFibonacci(c *gin.Context) {
	c.JSON(http.StatusOK, s.fibonacciState(c, c.Query("group")))
}

func (s *DashboardServer) startFibonacci(c *gin.Context) {
	s.drawing(c, c.Query("group")).StartDrawing()
	s.publishFibonacci(c)
}

func (s *DashboardServer) cancelFibonacci(c *gin.Context) {
	s.drawing(c, c.Query("group")).CancelDrawing()
	s.publishFibonacci(c)
}

func (s *DashboardServer) clearFibonacci(c *gin.Context) {
	s.drawing(c, c.Query("group")).ClearAll()
	s.publishFibonacci(c)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) addFibonacciPoint(c *gin.Context) {
	var point models.MFibonacciPoint
	if err := c.ShouldBindJSON(&point); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group := c.Query("group")
	r, err := s.drawing(c, group).AddPoint(point, s.referenceTimes(group))
	if err != nil {
		writeError(c, err)
		return
	}
	if r == nil {
		s.publishFibonacci(c)
		return
	}

	body := s.fibonacciState(c, group)
	body["retracement"] = r
	s.Broadcast(s.newEvent(models.EventFibonacci, group, "", body))
	c.JSON(http.StatusCreated, body)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) removeRetracement(c *gin.Context) {
	if err := s.drawing(c, c.Query("group")).RemoveRetracement(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	s.publishFibonacci(c)
}

// -----------------------------------------------------------------------------
// Lookups
// -----------------------------------------------------------------------------

func (s *DashboardServer) cachedView(group string) (models.MChartView, bool) {
	if view, ok := s.deps.Charts.Current(group); ok {
		return view, true
	}
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	view, ok := s.views[group]
	return view, ok
}

// referenceTimes is the time axis anchors are normalised against: the first
// series of the group's chart.
func (s *DashboardServer) referenceTimes(group string) []models.MChartTime {
	view, ok := s.cachedView(group)
	if !ok || len(view.Series) == 0 {
		return nil
	}
	return view.Series[0].Times()
}

// groupColors returns the palette of a loaded group, or nil.
func (s *DashboardServer) groupColors(group string) *state.ColorMap {
	if group == "" {
		return nil
	}
	view, ok := s.cachedView(group)
	if !ok {
		return nil
	}
	tickers := make([]string, len(view.Series))
	for i, series := range view.Series {
		tickers[i] = series.Ticker
	}
	return state.NewColorMap(group, tickers)
}

// colorsFor returns the palette of the first loaded group that holds ticker.
func (s *DashboardServer) colorsFor(ticker string) *state.ColorMap {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	for group, view := range s.views {
		if _, ok := view.ColorMap[ticker]; ok {
			tickers := make([]string, len(view.Series))
			for i, series := range view.Series {
				tickers[i] = series.Ticker
			}
			return state.NewColorMap(group, tickers)
		}
	}
	return nil
}
