package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCountdownTicksAndExpires(t *testing.T) {
	c := NewWithInterval(5 * time.Millisecond)

	var ticks []int
	done := make(chan struct{})
	err := c.Start(3, func(remaining int) {
		ticks = append(ticks, remaining)
	}, func() {
		close(done)
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("countdown did not expire")
	}

	want := []int{2, 1, 0}
	if len(ticks) != len(want) {
		t.Fatalf("expected %d ticks, got %v", len(want), ticks)
	}
	for i, r := range want {
		if ticks[i] != r {
			t.Fatalf("tick %d: expected %d, got %v", i, r, ticks)
		}
	}
	if c.Running() {
		t.Fatalf("expected countdown stopped after expiry")
	}
}

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	c := NewWithInterval(2 * time.Millisecond)

	var expiries int32
	done := make(chan struct{})
	_ = c.Start(1, nil, func() {
		if atomic.AddInt32(&expiries, 1) == 1 {
			close(done)
		}
	})

	<-done
	time.Sleep(20 * time.Millisecond)
	if n := atomic.LoadInt32(&expiries); n != 1 {
		t.Fatalf("expected one expiry, got %d", n)
	}
}

func TestCancelStopsTicks(t *testing.T) {
	c := NewWithInterval(5 * time.Millisecond)

	var ticks int32
	expired := make(chan struct{})
	_ = c.Start(100, func(int) {
		atomic.AddInt32(&ticks, 1)
	}, func() {
		close(expired)
	})

	time.Sleep(20 * time.Millisecond)
	c.Cancel()
	seen := atomic.LoadInt32(&ticks)
	time.Sleep(30 * time.Millisecond)

	if atomic.LoadInt32(&ticks) != seen {
		t.Fatalf("ticks continued after cancel")
	}
	select {
	case <-expired:
		t.Fatalf("expire fired after cancel")
	default:
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	c := NewWithInterval(time.Millisecond)
	_ = c.Start(50, nil, nil)
	c.Cancel()
	c.Cancel()
	if c.Running() {
		t.Fatalf("expected stopped countdown")
	}
}

func TestDoubleStartIsRejected(t *testing.T) {
	c := NewWithInterval(time.Millisecond)
	_ = c.Start(50, nil, nil)
	defer c.Cancel()

	if err := c.Start(10, nil, nil); err != ErrTimerRunning {
		t.Fatalf("expected ErrTimerRunning, got %v", err)
	}
}

func TestRestartAfterCancel(t *testing.T) {
	c := NewWithInterval(time.Millisecond)
	_ = c.Start(50, nil, nil)
	c.Cancel()

	done := make(chan struct{})
	if err := c.Start(1, nil, func() { close(done) }); err != nil {
		t.Fatalf("restart: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("restarted countdown never expired")
	}
}
