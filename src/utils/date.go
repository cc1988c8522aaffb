package utils

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"market-dashboard/src/logger"
)

const (
	isoDateLayout    = "2006-01-02"
	secondsPerDay    = 24 * 60 * 60
	maxTimeRangeDays = 366 * 50
)

var (
	utilsLogger    = logger.NewLogger(nil, "Utils")
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// -----------------------------------------------------------------------------

// IsoDateToUnixTime converts "YYYY-MM-DD" to unix seconds at UTC midnight.
func IsoDateToUnixTime(date string) (int64, error) {
	if !isoDatePattern.MatchString(date) {
		return 0, fmt.Errorf("invalid ISO date %q", date)
	}
	t, err := time.ParseInLocation(isoDateLayout, date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid ISO date %q: %w", date, err)
	}
	return t.Unix(), nil
}

// -----------------------------------------------------------------------------

// UnixTimeToIsoDate renders unix seconds as the UTC calendar date.
func UnixTimeToIsoDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(isoDateLayout)
}

// -----------------------------------------------------------------------------

func IsValidIsoDate(date string) bool {
	_, err := IsoDateToUnixTime(date)
	return err == nil
}

// -----------------------------------------------------------------------------

// SortByTime returns a copy of items ordered ascending by the time key.
func SortByTime[T any](items []T, timeOf func(T) int64) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return timeOf(out[i]) < timeOf(out[j]) })
	return out
}

// -----------------------------------------------------------------------------

// DaysDifference counts whole days from start to end (unix seconds), flooring.
func DaysDifference(start, end int64) int64 {
	diff := end - start
	days := diff / secondsPerDay
	if diff%secondsPerDay != 0 && diff < 0 {
		days--
	}
	return days
}

// -----------------------------------------------------------------------------

// CreateTimeRange lists UTC midnights from start to end inclusive.
func CreateTimeRange(start, end string) ([]int64, error) {
	from, err := IsoDateToUnixTime(start)
	if err != nil {
		return nil, err
	}
	to, err := IsoDateToUnixTime(end)
	if err != nil {
		return nil, err
	}
	if DaysDifference(from, to) > maxTimeRangeDays {
		return nil, fmt.Errorf("time range %s..%s is too large", start, end)
	}

	result := make([]int64, 0)
	for t := from; t <= to; t += secondsPerDay {
		result = append(result, t)
	}
	return result, nil
}

// -----------------------------------------------------------------------------

// TradingTimeRange is CreateTimeRange restricted to trading days of the
// ticker's exchange.
func TradingTimeRange(ticker, defaultMIC, start, end string) ([]int64, error) {
	days, err := CreateTimeRange(start, end)
	if err != nil {
		return nil, err
	}

	cal := GetCalendar(ticker, defaultMIC)
	out := make([]int64, 0, len(days))
	for _, d := range days {
		if cal.IsTradingDay(time.Unix(d, 0).UTC()) {
			out = append(out, d)
		}
	}
	utilsLogger.Debug("Trading range %s..%s for %s (%s): %d of %d days", start, end, ticker, cal.MIC, len(out), len(days))
	return out, nil
}
