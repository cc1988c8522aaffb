package fibonacci

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"market-dashboard/src/analysis/core"

	"github.com/google/uuid"
)

// SequenceIdentity numbers retracements fib-1, fib-2, ... and picks colors
// from a seeded generator, so a given seed always yields the same drawings.
type SequenceIdentity struct {
	mu      sync.Mutex
	n       int
	rng     *rand.Rand
	palette []string
}

func NewSequenceIdentity(seed int64) *SequenceIdentity {
	return &SequenceIdentity{
		rng:     rand.New(rand.NewSource(seed)),
		palette: core.RetracementPalette,
	}
}

func (s *SequenceIdentity) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("fib-%d", s.n)
}

func (s *SequenceIdentity) NextColor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.palette[s.rng.Intn(len(s.palette))]
}

// -----------------------------------------------------------------------------

// ClockIdentity builds ids from the wall clock plus a random suffix.
type ClockIdentity struct {
	mu      sync.Mutex
	now     func() time.Time
	rng     *rand.Rand
	palette []string
}

func NewClockIdentity() *ClockIdentity {
	return &ClockIdentity{
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		palette: core.RetracementPalette,
	}
}

// NextID returns fib-<unix ms>-<9 chars>.
func (c *ClockIdentity) NextID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("fib-%d-%s", c.now().UnixMilli(), suffix)
}

func (c *ClockIdentity) NextColor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.palette[c.rng.Intn(len(c.palette))]
}
