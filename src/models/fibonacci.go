package models

// MFibonacciPoint is a user-picked anchor on the price chart.
type MFibonacciPoint struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

// MFibonacciLevelConfig configures one retracement ratio.
// Visible controls whether the ratio produces a level at all.
type MFibonacciLevelConfig struct {
	Ratio   float64 `json:"ratio" yaml:"ratio"`
	Label   string  `json:"label" yaml:"label"`
	Color   string  `json:"color" yaml:"color"`
	Visible bool    `json:"visible" yaml:"visible"`
}

// MFibonacciLevel is one derived horizontal price level.
type MFibonacciLevel struct {
	Level   int     `json:"level"`
	Ratio   float64 `json:"ratio"`
	Price   float64 `json:"price"`
	Label   string  `json:"label"`
	Color   string  `json:"color"`
	Visible bool    `json:"visible"`
}

// MFibonacciRetracement is a committed retracement drawing.
type MFibonacciRetracement struct {
	ID         string            `json:"id"`
	StartPoint MFibonacciPoint   `json:"start_point"`
	EndPoint   MFibonacciPoint   `json:"end_point"`
	Levels     []MFibonacciLevel `json:"levels"`
	Color      string            `json:"color"`
	Visible    bool              `json:"visible"`
}

// MLevelSegment is a level drawn as a horizontal segment between two times.
type MLevelSegment struct {
	Level  int          `json:"level"`
	Label  string       `json:"label"`
	Color  string       `json:"color"`
	Points []MTimeValue `json:"points"`
}

// MRetracementGeometry is the line-segment form of a retracement.
type MRetracementGeometry struct {
	ID        string          `json:"id"`
	Color     string          `json:"color"`
	TrendLine []MTimeValue    `json:"trend_line"`
	Levels    []MLevelSegment `json:"levels"`
}

// Drawing session states.
const (
	DrawingIdle     = "idle"
	DrawingNoPoints = "drawing"
	DrawingStartSet = "drawing_start_set"
)

// MFibonacciState is a snapshot of a drawing session.
type MFibonacciState struct {
	State        string                  `json:"state"`
	IsDrawing    bool                    `json:"is_drawing"`
	StartPoint   *MFibonacciPoint        `json:"start_point,omitempty"`
	Retracements []MFibonacciRetracement `json:"retracements"`
}
