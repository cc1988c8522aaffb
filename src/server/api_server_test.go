package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"market-dashboard/src/analysis"
	"market-dashboard/src/fibonacci"
	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
	"market-dashboard/src/state"
	"market-dashboard/src/storage"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

type stubBackend struct {
	chartErr error
	// gates block ChartData of a group until closed
	gates map[string]chan struct{}

	mu             sync.Mutex
	failIndicators int
	indicatorCalls int
}

func (b *stubBackend) AvailableGroups(ctx context.Context) (models.MGroupsData, error) {
	return models.MGroupsData{"92": {Type: models.ChartTypeLine, Tickers: []string{"A", "B"}}}, nil
}

func (b *stubBackend) ChartData(ctx context.Context, group string) (models.MGroupChartData, error) {
	if b.chartErr != nil {
		return nil, b.chartErr
	}
	if gate := b.gates[group]; gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return models.MGroupChartData{
		"A": {Ticker: "A", Group: group, Type: models.ChartTypeLine, Data: []models.MApiDataPoint{
			{Date: "2024-01-01", Price: f64(10), Volume: f64(100)},
			{Date: "2024-01-02", Price: nil, Volume: f64(50)},
		}},
		"B": {Ticker: "B", Group: group, Type: models.ChartTypeLine, Data: []models.MApiDataPoint{
			{Date: "2024-01-01", Price: f64(20), Volume: f64(300)},
		}},
	}, nil
}

func (b *stubBackend) IndicatorSettings(ctx context.Context) (models.MIndicatorSettings, error) {
	return models.MIndicatorSettings{EmaPeriods: []int{20}, RsiPeriod: 14}, nil
}

// Indicator fails the first failIndicators calls.
func (b *stubBackend) Indicator(ctx context.Context, ticker, indicator string, period int) (models.MIndicatorResponse, error) {
	b.mu.Lock()
	b.indicatorCalls++
	fail := b.indicatorCalls <= b.failIndicators
	b.mu.Unlock()
	if fail {
		return models.MIndicatorResponse{}, helpers.NewBackendError(500, "indicator unavailable")
	}
	return models.MIndicatorResponse{Ticker: ticker, Indicator: indicator, Data: []models.MIndicatorValue{
		{Date: "2024-01-01", Value: f64(1)},
		{Date: "2024-01-02", Value: nil},
	}}, nil
}

func newTestServer(t *testing.T, backend *stubBackend) *DashboardServer {
	t.Helper()
	log := logger.NewLogger(nil, "ServerTest")
	facade := analysis.NewChartFacade(log)
	settings, _ := backend.IndicatorSettings(context.Background())

	deps := Dependencies{
		Groups:     state.NewGroupsStore(backend, storage.NewMemoryGroupsCache(0)),
		Charts:     state.NewChartRegistry(backend, facade),
		Indicators: state.NewIndicatorsLoader(backend),
		Toggles:    state.NewIndicatorToggles(settings),
		Fibonacci:  fibonacci.NewSessions(nil, fibonacci.NewSequenceIdentity(1)),
		Facade:     facade,
	}
	cfg := &models.MConfig{Host: "127.0.0.1", Port: 0, LogLevel: "INFO"}
	cfg.Calendar.DefaultMIC = "XNYS"

	s := NewDashboardServer(cfg, deps, log)
	t.Cleanup(func() { s.Stop() })
	return s
}

func do(t *testing.T, s *DashboardServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthAndConfig(t *testing.T) {
	s := newTestServer(t, &stubBackend{})

	w := do(t, s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"loaders":[]`)

	w = do(t, s, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cfg struct {
		Levels  []models.MFibonacciLevelConfig `json:"fibonacci_levels"`
		Palette []string                       `json:"fibonacci_palette"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.NotEmpty(t, cfg.Levels)
	assert.NotEmpty(t, cfg.Palette)
}

func TestGetChartDropsNonFinitePoints(t *testing.T) {
	s := newTestServer(t, &stubBackend{})

	w := do(t, s, http.MethodGet, "/api/charts/92", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view models.MChartView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Series, 2)
	assert.Len(t, view.Series[0].Line, 1)
	require.Len(t, view.VolumeStack, 2)
	assert.Equal(t, 400.0, view.VolumeStack[0].Total)
	assert.Nil(t, view.Legend[0].Price)

	w = do(t, s, http.MethodGet, "/api/charts/92/volume?time="+jsonInt(view.VolumeStack[0].Time), "")
	require.Equal(t, http.StatusOK, w.Code)
	var breakdown models.MVolumeBreakdown
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &breakdown))
	assert.Equal(t, 400.0, breakdown.TotalVolume)
	assert.Equal(t, "400", breakdown.TotalLabel)
	assert.Equal(t, "B", breakdown.Parts[0].Ticker)

	assert.Equal(t, int64(1), s.deps.Facade.Metrics().ChartsBuilt)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestGetChartBackendFailure(t *testing.T) {
	s := newTestServer(t, &stubBackend{chartErr: helpers.NewBackendError(500, "database is down")})

	w := do(t, s, http.MethodGet, "/api/charts/92", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "database is down")
}

func TestGroupsRoutes(t *testing.T) {
	s := newTestServer(t, &stubBackend{})

	w := do(t, s, http.MethodGet, "/api/groups", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"92"`)

	w = do(t, s, http.MethodPost, "/api/groups/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/groups/92", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"A"`)

	w = do(t, s, http.MethodGet, "/api/groups/77", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// without an account backend the catalogue answers
	w = do(t, s, http.MethodGet, "/api/tickers", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tickers":["A","B"]}`, w.Body.String())
}

func TestIndicatorRoutes(t *testing.T) {
	s := newTestServer(t, &stubBackend{})
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/charts/92", "").Code)

	w := do(t, s, http.MethodGet, "/api/indicators/A", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Indicators []models.MIndicatorData  `json:"indicators"`
		Toggles    models.MTickerIndicators `json:"toggles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Indicators, 2)
	assert.Len(t, resp.Indicators[0].Data, 1)
	assert.True(t, resp.Toggles.Volume)

	w = do(t, s, http.MethodPost, "/api/indicators/A/toggle", `{"kind":"ema","period":20,"enabled":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":true`)

	w = do(t, s, http.MethodPost, "/api/indicators/A/toggle", `{"kind":"ema","period":99,"enabled":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/indicators/A/toggle", `{"period":20}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFibonacciRoutes(t *testing.T) {
	s := newTestServer(t, &stubBackend{})

	w := do(t, s, http.MethodPost, "/api/fibonacci/points", `{"time":1704067200,"price":100}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"idle"`)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/fibonacci/start", "").Code)
	w = do(t, s, http.MethodPost, "/api/fibonacci/points", `{"time":1704067200,"price":100}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"drawing_start_set"`)

	w = do(t, s, http.MethodPost, "/api/fibonacci/points", `{"time":1704153600,"price":200}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Retracement models.MFibonacciRetracement `json:"retracement"`
		Geometry    []models.MRetracementGeometry `json:"geometry"`
		Segments    map[string][]models.MTimeValue `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Retracement.ID)
	require.Len(t, body.Geometry, 1)
	assert.Contains(t, body.Segments, body.Retracement.ID)

	w = do(t, s, http.MethodDelete, "/api/fibonacci/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/api/fibonacci/"+body.Retracement.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.deps.Fibonacci.Retracements())

	require.Equal(t, http.StatusOK, do(t, s, http.MethodDelete, "/api/fibonacci", "").Code)
}

func TestTimeRangeRoute(t *testing.T) {
	s := newTestServer(t, &stubBackend{})

	w := do(t, s, http.MethodGet, "/api/time-range?start=2024-01-01&end=2024-01-03", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Times []int64 `json:"times"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Times, 3)

	w = do(t, s, http.MethodGet, "/api/time-range?start=bad&end=2024-01-03", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "YYYY-MM-DD")

	w = do(t, s, http.MethodGet, "/api/time-range?start=2024-01-01&end=2024-02-30", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebsocketReceivesChartLoaded(t *testing.T) {
	s := newTestServer(t, &stubBackend{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(models.MSubscribeCommand{Command: "subscribe", ClientType: "dashboard", Groups: []string{"92"}}))

	resp, err := http.Get(ts.URL + "/api/charts/92")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var event models.MDashboardEvent
		require.NoError(t, conn.ReadJSON(&event))
		if event.Type == models.EventChartLoaded {
			assert.Equal(t, "92", event.Group)
			assert.Equal(t, int64(1), event.ProcessingMetrics.ChartsBuilt)
			return
		}
	}
}

func TestStopWhileStarting(t *testing.T) {
	s := newTestServer(t, &stubBackend{})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	require.NoError(t, s.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
