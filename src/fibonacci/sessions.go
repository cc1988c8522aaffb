package fibonacci

import (
	"sort"
	"sync"

	"market-dashboard/src/analysis/core"
	"market-dashboard/src/models"
)

// Sessions keeps one drawing Session per viewer key. All sessions share the
// level configuration and the identity source, so ids stay unique across
// charts.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	levels   []models.MFibonacciLevelConfig
	identity core.IdentitySource
}

// -----------------------------------------------------------------------------

func NewSessions(levels []models.MFibonacciLevelConfig, identity core.IdentitySource) *Sessions {
	if len(levels) == 0 {
		levels = core.DefaultFibonacciLevels
	}
	if identity == nil {
		identity = NewClockIdentity()
	}
	return &Sessions{
		sessions: make(map[string]*Session),
		levels:   append([]models.MFibonacciLevelConfig(nil), levels...),
		identity: identity,
	}
}

// -----------------------------------------------------------------------------

// For returns the session of key, creating an idle one on first use.
func (s *Sessions) For(key string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[key]; ok {
		return sess
	}
	sess = NewSession(s.levels, s.identity)
	s.sessions[key] = sess
	return sess
}

// -----------------------------------------------------------------------------

func (s *Sessions) Levels() []models.MFibonacciLevelConfig {
	return append([]models.MFibonacciLevelConfig(nil), s.levels...)
}

// -----------------------------------------------------------------------------

// Keys lists the known sessions in name order.
func (s *Sessions) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// -----------------------------------------------------------------------------

// Retracements returns the committed retracements of every session that has
// any, keyed by session.
func (s *Sessions) Retracements() map[string][]models.MFibonacciRetracement {
	out := make(map[string][]models.MFibonacciRetracement)
	for _, key := range s.Keys() {
		if rs := s.For(key).Retracements(); len(rs) > 0 {
			out[key] = rs
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// Drawing counts sessions with a retracement under construction.
func (s *Sessions) Drawing() int {
	n := 0
	for _, key := range s.Keys() {
		if s.For(key).State() != Idle {
			n++
		}
	}
	return n
}

// -----------------------------------------------------------------------------

// ClearAll empties every session.
func (s *Sessions) ClearAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.ClearAll()
	}
}
