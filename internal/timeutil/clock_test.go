package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	start := c.Now()
	if c.Since(start) < 0 {
		t.Error("Since returned a negative duration")
	}
	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(2 * time.Second):
		t.Fatal("real ticker never fired")
	}
}

func TestOrReal(t *testing.T) {
	if _, ok := OrReal(nil).(RealClock); !ok {
		t.Error("OrReal(nil) should be RealClock")
	}
	m := NewMockClock(time.Unix(0, 0))
	if OrReal(m) != Clock(m) {
		t.Error("OrReal should keep a non-nil clock")
	}
}

func TestMockClock_Advance(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(base)

	c.Advance(90 * time.Second)
	if got := c.Now(); !got.Equal(base.Add(90 * time.Second)) {
		t.Errorf("Now() = %v", got)
	}
	if got := c.Since(base); got != 90*time.Second {
		t.Errorf("Since() = %v", got)
	}
}

func TestMockTicker(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(10 * time.Second)
	if c.Tickers() != 1 {
		t.Fatalf("Tickers() = %d", c.Tickers())
	}

	c.Advance(5 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("ticked early")
	default:
	}

	c.Advance(5 * time.Second)
	select {
	case got := <-tk.C():
		if !got.Equal(time.Unix(10, 0)) {
			t.Errorf("tick time = %v", got)
		}
	default:
		t.Fatal("expected a tick at 10s")
	}

	// unreceived ticks are dropped, not queued
	c.Advance(10 * time.Second)
	c.Advance(10 * time.Second)
	<-tk.C()
	select {
	case <-tk.C():
		t.Fatal("ticks should not queue")
	default:
	}

	tk.Stop()
	c.Advance(time.Minute)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}
