package state

import (
	"fmt"
	"sync"

	"market-dashboard/src/helpers"
	"market-dashboard/src/models"
)

// Overlay kinds accepted by IndicatorToggles.Set.
const (
	ToggleVolume = "volume"
	ToggleRSI    = models.IndicatorRSI
	ToggleEMA    = models.IndicatorEMA
)

// IndicatorToggles keeps the overlay switches of each ticker. New tickers
// show volume only. The EMA list always mirrors the configured periods.
type IndicatorToggles struct {
	mu      sync.RWMutex
	periods []int
	tickers map[string]*models.MTickerIndicators
}

// -----------------------------------------------------------------------------

func NewIndicatorToggles(settings models.MIndicatorSettings) *IndicatorToggles {
	return &IndicatorToggles{
		periods: append([]int(nil), settings.EmaPeriods...),
		tickers: make(map[string]*models.MTickerIndicators),
	}
}

// -----------------------------------------------------------------------------

// ApplySettings reshapes every EMA list to the new periods, keeping the state
// of periods that survive.
func (t *IndicatorToggles) ApplySettings(settings models.MIndicatorSettings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.periods = append([]int(nil), settings.EmaPeriods...)
	for _, ind := range t.tickers {
		ind.EMA = t.reshape(ind.EMA)
	}
}

func (t *IndicatorToggles) reshape(old []models.MEmaToggle) []models.MEmaToggle {
	enabled := make(map[int]bool, len(old))
	for _, e := range old {
		enabled[e.Period] = e.Enabled
	}
	out := make([]models.MEmaToggle, len(t.periods))
	for i, p := range t.periods {
		out[i] = models.MEmaToggle{Period: p, Enabled: enabled[p]}
	}
	return out
}

// -----------------------------------------------------------------------------

// Get returns the switches of ticker.
func (t *IndicatorToggles) Get(ticker string) models.MTickerIndicators {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyIndicators(t.entry(ticker))
}

func (t *IndicatorToggles) entry(ticker string) *models.MTickerIndicators {
	ind, ok := t.tickers[ticker]
	if !ok {
		ind = &models.MTickerIndicators{Ticker: ticker, Volume: true, EMA: t.reshape(nil)}
		t.tickers[ticker] = ind
	}
	return ind
}

// -----------------------------------------------------------------------------

// Set switches one overlay. An EMA period missing from the settings is rejected.
func (t *IndicatorToggles) Set(ticker string, toggle models.MIndicatorToggle) (models.MTickerIndicators, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ind := t.entry(ticker)
	switch toggle.Kind {
	case ToggleVolume:
		ind.Volume = toggle.Enabled
	case ToggleRSI:
		ind.RSI = toggle.Enabled
	case ToggleEMA:
		found := false
		for i := range ind.EMA {
			if ind.EMA[i].Period == toggle.Period {
				ind.EMA[i].Enabled = toggle.Enabled
				found = true
				break
			}
		}
		if !found {
			return copyIndicators(ind), fmt.Errorf("%w: %d", helpers.ErrUnknownEmaPeriod, toggle.Period)
		}
	default:
		return copyIndicators(ind), helpers.NewValidationError(fmt.Sprintf("unknown overlay %q", toggle.Kind), nil)
	}
	return copyIndicators(ind), nil
}

// -----------------------------------------------------------------------------

func copyIndicators(ind *models.MTickerIndicators) models.MTickerIndicators {
	out := *ind
	out.EMA = append([]models.MEmaToggle(nil), ind.EMA...)
	return out
}
