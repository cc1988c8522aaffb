package state

import (
	"market-dashboard/src/utils"
)

const (
	fallbackEmaBase = "#000"
	fallbackRsiBase = "#AAA"
	fallbackBase    = "#444"
)

// ColorMap assigns the base palette to the tickers of a group by position.
type ColorMap struct {
	Group  string
	colors map[string]string
}

// -----------------------------------------------------------------------------

func NewColorMap(group string, tickers []string) *ColorMap {
	colors := make(map[string]string, len(tickers))
	for i, ticker := range tickers {
		colors[ticker] = utils.BaseColor(i)
	}
	return &ColorMap{Group: group, colors: colors}
}

// -----------------------------------------------------------------------------

// Colors returns a copy of the ticker to colour mapping.
func (c *ColorMap) Colors() map[string]string {
	out := make(map[string]string, len(c.colors))
	for k, v := range c.colors {
		out[k] = v
	}
	return out
}

func (c *ColorMap) BaseColor(ticker string) string {
	if color, ok := c.colors[ticker]; ok {
		return color
	}
	return fallbackBase
}

func (c *ColorMap) EmaColor(ticker string, period int, allPeriods []int) string {
	base, ok := c.colors[ticker]
	if !ok {
		base = fallbackEmaBase
	}
	return utils.GenerateEmaColor(base, period, allPeriods)
}

func (c *ColorMap) RsiColor(ticker string) string {
	base, ok := c.colors[ticker]
	if !ok {
		base = fallbackRsiBase
	}
	return utils.GenerateRsiColor(base)
}

// Has reports whether ticker has an assigned colour.
func (c *ColorMap) Has(ticker string) bool {
	_, ok := c.colors[ticker]
	return ok
}
