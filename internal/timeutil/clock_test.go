package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("RealClock.Now() = %v, expected between %v and %v", now, before, after)
	}
	if clock.Since(before) < 0 {
		t.Error("RealClock.Since should not be negative")
	}
}

func TestMockClock_NowAndAdvance(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	clock.Advance(90 * time.Second)
	if got := clock.Since(start); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestMockClock_After(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	ch := clock.After(time.Second)
	select {
	case <-ch:
		t.Fatal("After fired before the clock advanced")
	default:
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("After fired early")
	default:
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case got := <-ch:
		if !got.Equal(start.Add(time.Second)) {
			t.Errorf("After delivered %v", got)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestMockClock_AfterNonPositive(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	select {
	case <-clock.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}

	clock.After(-time.Second)
	clock.After(2 * time.Second)
	afters := clock.Afters()
	if len(afters) != 3 || afters[2] != 2*time.Second {
		t.Errorf("Afters() = %v", afters)
	}
}
