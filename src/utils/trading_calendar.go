package utils

import (
	"strings"
	"sync"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers trading-day questions using scmhub/calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	MIC      string
	Fallback bool
	Timezone *time.Location
}

// Ticker suffix to MIC code (ISO 10383).
var suffixMIC = []struct {
	suffix string
	mic    string
}{
	{".L", "xlon"},
	{".PA", "xpar"},
	{".DE", "xfra"},
	{".AS", "xams"},
	{".BR", "xbru"},
	{".MI", "xmil"},
	{".MC", "xmad"},
	{".ST", "xsto"},
	{".CO", "xcse"},
	{".HE", "xhel"},
	{".VI", "xwbo"},
	{".SW", "xswx"},
	{".TO", "xtse"},
	{".V", "xtsx"},
	{".T", "xtks"},
	{".HK", "xhkg"},
	{".AX", "xasx"},
	{".KS", "xkrx"},
	{".TW", "xtai"},
	{".SS", "xshg"},
	{".SZ", "xshe"},
}

var (
	calendarCache   = make(map[string]*TradingCalendar)
	calendarCacheMu sync.Mutex
)

// -----------------------------------------------------------------------------

// MICForTicker maps a ticker suffix to its exchange, defaulting to defaultMIC.
func MICForTicker(ticker, defaultMIC string) string {
	for _, e := range suffixMIC {
		if strings.HasSuffix(ticker, e.suffix) {
			return e.mic
		}
	}
	if defaultMIC == "" {
		return "xnys"
	}
	return strings.ToLower(defaultMIC)
}

// -----------------------------------------------------------------------------

// GetCalendar returns the (cached) calendar of the ticker's exchange.
func GetCalendar(ticker, defaultMIC string) *TradingCalendar {
	mic := MICForTicker(ticker, defaultMIC)

	calendarCacheMu.Lock()
	defer calendarCacheMu.Unlock()
	if tc, ok := calendarCache[mic]; ok {
		return tc
	}

	tc := loadCalendar(mic)
	calendarCache[mic] = tc
	return tc
}

// -----------------------------------------------------------------------------

func loadCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		utilsLogger.Warning("Failed to load calendar for MIC '%s' and fallback 'xnys'. Using Mon-Fri fallback.", mic)
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, MIC: mic, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// IsTradingDay reports whether the exchange trades on the calendar day of date.
// The day is taken from date as given, so UTC-midnight chart times map to the
// same exchange-local day.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenAt checks if the market is open at a specific instant.
func (tc *TradingCalendar) IsOpenAt(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		hour, minute := t.Hour(), t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return tc.Calendar.IsOpen(t)
}
