package server

import (
	"errors"
	"math"
	"net/http"

	"market-dashboard/src/helpers"
	"market-dashboard/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Non-finite filtering. Missing prices travel as NaN up to here and must not
// reach the chart surface or the JSON encoder.
// -----------------------------------------------------------------------------

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if finite(v) {
		return v
	}
	return 0
}

func finitePtr(v *float64) *float64 {
	if v == nil || !finite(*v) {
		return nil
	}
	return v
}

// -----------------------------------------------------------------------------

func sanitizeView(v models.MChartView) models.MChartView {
	out := v
	out.Series = make([]models.MSeriesInfo, len(v.Series))
	for i, s := range v.Series {
		out.Series[i] = sanitizeSeries(s)
	}
	out.Legend = make([]models.MLegendEntry, len(v.Legend))
	for i, e := range v.Legend {
		e.Price = finitePtr(e.Price)
		e.Volume = finitePtr(e.Volume)
		e.ChangePercent = finiteOrZero(e.ChangePercent)
		e.VolumeRatio = finiteOrZero(e.VolumeRatio)
		e.TotalVolume = finiteOrZero(e.TotalVolume)
		out.Legend[i] = e
	}
	out.LastTotal = finitePtr(v.LastTotal)
	out.VolumeZScore = finiteOrZero(v.VolumeZScore)
	out.MaxTotal = finiteOrZero(v.MaxTotal)
	out.VolumeScale.MinValue = finiteOrZero(v.VolumeScale.MinValue)
	out.VolumeScale.MaxValue = finiteOrZero(v.VolumeScale.MaxValue)
	out.VolumeScale.ScaleFactor = finiteOrZero(v.VolumeScale.ScaleFactor)
	return out
}

func sanitizeSeries(s models.MSeriesInfo) models.MSeriesInfo {
	out := s
	if s.Line != nil {
		out.Line = make([]models.MLinePoint, 0, len(s.Line))
		for _, p := range s.Line {
			if finite(p.Value) {
				p.Volume = finitePtr(p.Volume)
				out.Line = append(out.Line, p)
			}
		}
	}
	if s.Candles != nil {
		out.Candles = make([]models.MCandlestickPoint, 0, len(s.Candles))
		for _, c := range s.Candles {
			if finite(c.Open) && finite(c.High) && finite(c.Low) && finite(c.Close) {
				c.Volume = finitePtr(c.Volume)
				out.Candles = append(out.Candles, c)
			}
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func sanitizeIndicators(in []models.MIndicatorData) []models.MIndicatorData {
	out := make([]models.MIndicatorData, len(in))
	for i, d := range in {
		points := make([]models.MLinePoint, 0, len(d.Data))
		for _, p := range d.Data {
			if finite(p.Value) {
				points = append(points, p)
			}
		}
		d.Data = points
		out[i] = d
	}
	return out
}

// -----------------------------------------------------------------------------

func sanitizeGeometry(in []models.MRetracementGeometry) []models.MRetracementGeometry {
	out := make([]models.MRetracementGeometry, len(in))
	for i, g := range in {
		g.TrendLine = finitePoints(g.TrendLine)
		levels := make([]models.MLevelSegment, 0, len(g.Levels))
		for _, l := range g.Levels {
			l.Points = finitePoints(l.Points)
			if len(l.Points) > 0 {
				levels = append(levels, l)
			}
		}
		g.Levels = levels
		out[i] = g
	}
	return out
}

func finitePoints(in []models.MTimeValue) []models.MTimeValue {
	out := make([]models.MTimeValue, 0, len(in))
	for _, p := range in {
		if finite(p.Value) {
			out = append(out, p)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Viewers
// -----------------------------------------------------------------------------

// sessionHeader names the browser tab a request comes from. Requests without
// it share the default chart and drawing state of the group.
const sessionHeader = "X-Dashboard-Session"

func viewerSession(c *gin.Context) string {
	if session := c.GetHeader(sessionHeader); session != "" {
		return session
	}
	return c.Query("session")
}

// -----------------------------------------------------------------------------
// Error responses
// -----------------------------------------------------------------------------

// writeError maps err onto a status. Backend client errors keep their status,
// other backend and network failures become 502 with the message a user should
// read. A superseded load answers 204.
func writeError(c *gin.Context, err error) {
	var (
		ve *helpers.ValidationError
		se *helpers.StateError
		be *helpers.BackendError
		ne *helpers.NetworkError
	)

	switch {
	case helpers.IsStale(err):
		c.Status(http.StatusNoContent)
	case errors.Is(err, helpers.ErrUnknownGroup), errors.Is(err, helpers.ErrUnknownRetracement):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, helpers.ErrUnknownEmaPeriod), errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &be) && be.StatusCode >= 400 && be.StatusCode < 500:
		c.JSON(be.StatusCode, gin.H{"error": helpers.UserMessage(err)})
	case errors.As(err, &be), errors.As(err, &ne):
		c.JSON(http.StatusBadGateway, gin.H{"error": helpers.UserMessage(err)})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": helpers.UserMessage(err)})
	}
}

// -----------------------------------------------------------------------------

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[s] = struct{}{}
	}
	return out
}
