// Package clock supplies the feed's time source as Unix seconds.
//
// Production code uses System. Tests drive a Manual clock so that expiry
// boundaries can be hit exactly.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time as Unix seconds.
type Clock interface {
	Now() uint64
}

// System reads the wall clock.
type System struct{}

func (System) Now() uint64 {
	s := time.Now().Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}

// Func adapts a plain function to Clock.
type Func func() uint64

func (f Func) Now() uint64 { return f() }

// Manual is a settable clock. The zero value reads 0.
type Manual struct {
	mu  sync.Mutex
	now uint64
}

// NewManual returns a Manual clock reading start.
func NewManual(start uint64) *Manual { return &Manual{now: start} }

func (m *Manual) Now() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t, backwards included.
func (m *Manual) Set(t uint64) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d, truncated to whole seconds.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += uint64(d / time.Second)
	m.mu.Unlock()
}
