// Package scheduler fires callbacks at future instants, keyed so that
// re-registration replaces the pending timer instead of duplicating it.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler is a process-wide registry of keyed one-shot timers
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	now    func() time.Time
}

// New creates an empty scheduler
func New() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		now:    time.Now,
	}
}

// ScheduleAt registers fn to run at the given instant. A key already
// holding a pending timer is replaced. Instants in the past fire
// immediately (still asynchronously).
func (s *Scheduler) ScheduleAt(key string, at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[key]; ok {
		existing.Stop()
	}

	delay := at.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops the pending timer for key, reporting whether one existed
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(s.timers, key)
	return true
}

// Pending returns the number of registered timers
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending timer
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}
