package timer

import (
	"errors"
	"sync"
	"time"
)

// ErrTimerRunning is returned when Start is called on a running countdown.
// Callers must Cancel first; hitting this is a programming error.
var ErrTimerRunning = errors.New("countdown already running")

// Countdown is a one-second-resolution countdown clock. It holds no quiz
// semantics: its only side effects are the supplied callbacks. OnTick fires
// once per elapsed second with the new remaining value; when remaining
// reaches zero the expire callback fires exactly once and the countdown
// self-cancels. Cancel is idempotent.
type Countdown struct {
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

// New returns a countdown ticking at one-second resolution.
func New() *Countdown {
	return NewWithInterval(time.Second)
}

// NewWithInterval allows a shorter tick interval for deterministic tests.
func NewWithInterval(interval time.Duration) *Countdown {
	return &Countdown{interval: interval}
}

// Start begins counting down from durationSeconds. Callbacks run on the
// countdown's own goroutine; callers serialize their own state.
func (c *Countdown) Start(durationSeconds int, onTick func(remaining int), onExpire func()) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrTimerRunning
	}
	stop := make(chan struct{})
	c.stop = stop
	c.running = true
	c.mu.Unlock()

	go c.run(durationSeconds, stop, onTick, onExpire)
	return nil
}

func (c *Countdown) run(remaining int, stop chan struct{}, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining--
			if remaining > 0 {
				if onTick != nil {
					onTick(remaining)
				}
				continue
			}
			// Final tick and expiry; mark stopped before the expire
			// callback so a re-entrant Cancel is a no-op.
			if onTick != nil {
				onTick(0)
			}
			c.mu.Lock()
			if c.stop == stop {
				c.running = false
				c.stop = nil
			}
			c.mu.Unlock()
			if onExpire != nil {
				onExpire()
			}
			return
		}
	}
}

// Cancel stops the countdown. Safe to call when not running and safe to
// call more than once.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	close(c.stop)
	c.stop = nil
	c.running = false
}

// Running reports whether the countdown is active.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
