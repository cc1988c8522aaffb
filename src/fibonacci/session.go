package fibonacci

import (
	"fmt"
	"sync"

	"market-dashboard/src/analysis/core"
	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

// State of a drawing session.
type State int

const (
	Idle State = iota
	DrawingNoPoints
	DrawingStartSet
)

func (s State) String() string {
	switch s {
	case DrawingNoPoints:
		return models.DrawingNoPoints
	case DrawingStartSet:
		return models.DrawingStartSet
	default:
		return models.DrawingIdle
	}
}

// Session holds one chart's Fibonacci drawings: at most one retracement
// under construction plus the ordered list of committed ones.
type Session struct {
	mu           sync.RWMutex
	state        State
	start        *models.MFibonacciPoint
	retracements []models.MFibonacciRetracement

	levels   []models.MFibonacciLevelConfig
	identity core.IdentitySource
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

// NewSession creates an idle session. Empty levels fall back to the defaults.
func NewSession(levels []models.MFibonacciLevelConfig, identity core.IdentitySource) *Session {
	if len(levels) == 0 {
		levels = core.DefaultFibonacciLevels
	}
	if identity == nil {
		identity = NewClockIdentity()
	}
	return &Session{
		levels:   append([]models.MFibonacciLevelConfig(nil), levels...),
		identity: identity,
		Logger:   logger.NewLogger(nil, "Fibonacci"),
	}
}

// -----------------------------------------------------------------------------

// Levels returns the ratio configuration used for new retracements.
func (s *Session) Levels() []models.MFibonacciLevelConfig {
	return append([]models.MFibonacciLevelConfig(nil), s.levels...)
}

// -----------------------------------------------------------------------------

// StartDrawing begins a new retracement, dropping any half-placed one.
func (s *Session) StartDrawing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = DrawingNoPoints
	s.start = nil
}

// -----------------------------------------------------------------------------

// CancelDrawing abandons the retracement under construction.
func (s *Session) CancelDrawing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.start = nil
}

// -----------------------------------------------------------------------------

// AddPoint places the next anchor, normalised to the reference series. The
// second anchor commits and returns the new retracement. Points are ignored
// while idle.
func (s *Session) AddPoint(point models.MFibonacciPoint, reference []models.MChartTime) (*models.MFibonacciRetracement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return nil, nil
	}

	normalized, conv := core.NormalizeTimeReport(point.Time, reference)
	if conv.Applied {
		s.Logger.Warning("Anchor time %d looks like %s but the chart uses %s; converted to %d",
			point.Time, conv.From, conv.To, normalized)
	}
	point.Time = normalized

	switch s.state {
	case DrawingNoPoints:
		p := point
		s.start = &p
		s.state = DrawingStartSet
		return nil, nil

	case DrawingStartSet:
		r := core.ComputeRetracement(*s.start, point, s.levels, s.identity)
		s.retracements = append(s.retracements, r)
		s.state = Idle
		s.start = nil
		s.Logger.Info("Retracement %s committed: %.4f -> %.4f (%d levels)",
			r.ID, r.StartPoint.Price, r.EndPoint.Price, len(r.Levels))
		return &r, nil
	}

	return nil, helpers.NewStateError(fmt.Sprintf("unexpected drawing state %d", s.state), nil)
}

// -----------------------------------------------------------------------------

// RemoveRetracement drops one committed retracement by id.
func (s *Session) RemoveRetracement(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.retracements {
		if r.ID == id {
			s.retracements = append(s.retracements[:i:i], s.retracements[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", helpers.ErrUnknownRetracement, id)
}

// -----------------------------------------------------------------------------

// ClearAll returns to idle with no retracements.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.start = nil
	s.retracements = nil
}

// -----------------------------------------------------------------------------

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// -----------------------------------------------------------------------------

// Retracements returns a copy of the committed retracements in creation order.
func (s *Session) Retracements() []models.MFibonacciRetracement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MFibonacciRetracement{}, s.retracements...)
}

// -----------------------------------------------------------------------------

// Snapshot captures the session for serialisation.
func (s *Session) Snapshot() models.MFibonacciState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.MFibonacciState{
		State:        s.state.String(),
		IsDrawing:    s.state != Idle,
		Retracements: append([]models.MFibonacciRetracement{}, s.retracements...),
	}
	if s.start != nil {
		p := *s.start
		snap.StartPoint = &p
	}
	return snap
}

// -----------------------------------------------------------------------------

// Geometry expands every committed retracement against the reference series.
func (s *Session) Geometry(reference []models.MChartTime) []models.MRetracementGeometry {
	out := make([]models.MRetracementGeometry, 0)
	for _, r := range s.Retracements() {
		out = append(out, core.RetracementGeometry(r, reference))
	}
	return out
}
