package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"market-dashboard/src/logger"

	"github.com/robfig/cron/v3"
)

// RefreshScheduler runs periodic refresh jobs on cron expressions (with seconds).
type RefreshScheduler struct {
	Cron   *cron.Cron
	Logger *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	tickers []string
	mic     string
	runs    map[string]int
}

// -----------------------------------------------------------------------------

func NewRefreshScheduler(ctx context.Context, defaultMIC string, l *logger.Logger) *RefreshScheduler {
	cctx, cancel := context.WithCancel(ctx)
	return &RefreshScheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Logger: l,
		ctx:    cctx,
		cancel: cancel,
		mic:    defaultMIC,
		runs:   make(map[string]int),
	}
}

// -----------------------------------------------------------------------------

// Register adds a named job. Each run gets a context that ends on Stop.
func (s *RefreshScheduler) Register(expr, name string, job func(ctx context.Context) error) error {
	if expr == "" {
		s.Logger.Info("Job %s disabled (empty schedule)", name)
		return nil
	}
	_, err := s.Cron.AddFunc(expr, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("register %s job: %w", name, err)
	}
	s.Logger.Info("Job %s scheduled: %s", name, expr)
	return nil
}

// -----------------------------------------------------------------------------

// RunNow executes a job immediately, outside the schedule.
func (s *RefreshScheduler) RunNow(name string, job func(ctx context.Context) error) {
	s.run(name, job)
}

// -----------------------------------------------------------------------------

func (s *RefreshScheduler) run(name string, job func(ctx context.Context) error) {
	if s.ctx.Err() != nil {
		return
	}
	start := time.Now()
	err := job(s.ctx)

	s.mu.Lock()
	s.runs[name]++
	s.mu.Unlock()

	if err != nil {
		s.Logger.Error("Job %s failed: %v", name, err)
		return
	}
	s.Logger.Debug("Job %s done in %v (markets open: %t)", name, time.Since(start), s.AnyMarketOpen(time.Now()))
}

// -----------------------------------------------------------------------------

// Runs returns how many times the named job has executed.
func (s *RefreshScheduler) Runs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[name]
}

// -----------------------------------------------------------------------------

// TrackTickers records the tickers whose exchanges are reported in job logs.
func (s *RefreshScheduler) TrackTickers(tickers []string) {
	s.mu.Lock()
	s.tickers = append([]string(nil), tickers...)
	s.mu.Unlock()
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if any tracked ticker's exchange is open at t.
func (s *RefreshScheduler) AnyMarketOpen(t time.Time) bool {
	s.mu.Lock()
	tickers := s.tickers
	s.mu.Unlock()

	seen := make(map[*TradingCalendar]bool)
	for _, ticker := range tickers {
		cal := GetCalendar(ticker, s.mic)
		if seen[cal] {
			continue
		}
		seen[cal] = true
		if cal.IsOpenAt(t) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

func (s *RefreshScheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("Refresh scheduler started")
}

// -----------------------------------------------------------------------------

// Stop halts the cron loop and waits for running jobs.
func (s *RefreshScheduler) Stop() {
	s.cancel()
	<-s.Cron.Stop().Done()
	s.Logger.Info("Refresh scheduler stopped")
}
