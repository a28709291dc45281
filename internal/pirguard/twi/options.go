package twi

import "time"

type config struct {
	waiter    Waiter
	idlePoll  time.Duration
	idleEvery time.Duration
	onIdle    func()
}

func defaultConfig() config {
	return config{
		waiter:   DefaultWaiter,
		idlePoll: time.Millisecond,
	}
}

// Option configures a Master or Slave.
type Option func(*config)

// WithWaiter replaces the bounded wait used between bus phases.
func WithWaiter(w Waiter) Option {
	return func(c *config) { c.waiter = w }
}

// WithIdlePoll sets how often an idle slave checks for incoming traffic.
func WithIdlePoll(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.idlePoll = d
		}
	}
}

// WithIdleHook makes an idle slave call fn every interval while it waits
// for a master to address it.
func WithIdleHook(every time.Duration, fn func()) Option {
	return func(c *config) {
		c.idleEvery = every
		c.onIdle = fn
	}
}
