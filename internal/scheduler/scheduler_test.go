package scheduler

import (
	"testing"
	"time"
)

func TestScheduleAtFires(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan struct{})
	s.ScheduleAt("k", time.Now().Add(10*time.Millisecond), func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	if s.Pending() != 0 {
		t.Fatalf("expected fired key to be removed, pending=%d", s.Pending())
	}
}

func TestScheduleAtPastInstantFiresImmediately(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan struct{})
	s.ScheduleAt("k", time.Now().Add(-time.Hour), func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("overdue timer did not fire")
	}
}

func TestScheduleAtReplacesPendingKey(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan string, 2)
	s.ScheduleAt("k", time.Now().Add(time.Hour), func() { fired <- "first" })
	s.ScheduleAt("k", time.Now().Add(10*time.Millisecond), func() { fired <- "second" })

	if s.Pending() != 1 {
		t.Fatalf("expected a single pending timer, got %d", s.Pending())
	}

	select {
	case got := <-fired:
		if got != "second" {
			t.Fatalf("expected the replacement callback, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}

	select {
	case got := <-fired:
		t.Fatalf("replaced callback fired: %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancel(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan struct{}, 1)
	s.ScheduleAt("k", time.Now().Add(20*time.Millisecond), func() { fired <- struct{}{} })

	if !s.Cancel("k") {
		t.Fatal("expected Cancel to report an existing timer")
	}
	if s.Cancel("k") {
		t.Fatal("expected Cancel to report a missing timer")
	}

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopCancelsEverything(t *testing.T) {
	s := New()

	s.ScheduleAt("a", time.Now().Add(time.Hour), func() {})
	s.ScheduleAt("b", time.Now().Add(time.Hour), func() {})
	s.Stop()

	if s.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", s.Pending())
	}
}
