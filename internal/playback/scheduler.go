package playback

import (
	"sync"
	"time"
)

// Scheduler drives the recurring playback tick. It is an interface so
// tests can fire ticks synchronously without wall-clock waits.
type Scheduler interface {
	// Start begins invoking tick at the given period. A second Start
	// replaces the previous schedule.
	Start(period time.Duration, tick func())
	// Reset changes the period of a running schedule. Calling Reset from
	// inside the tick callback is allowed.
	Reset(period time.Duration)
	// Stop cancels the schedule. Idempotent.
	Stop()
}

// TickerScheduler is the wall-clock Scheduler used in production.
type TickerScheduler struct {
	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

func (s *TickerScheduler) Start(period time.Duration, tick func()) {
	s.Stop()

	s.mu.Lock()
	s.ticker = time.NewTicker(period)
	s.done = make(chan struct{})
	ticker, done := s.ticker, s.done
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				tick()
			case <-done:
				return
			}
		}
	}()
}

func (s *TickerScheduler) Reset(period time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Reset(period)
	}
}

func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.done)
		s.ticker = nil
		s.done = nil
	}
}
