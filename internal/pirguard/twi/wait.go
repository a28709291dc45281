package twi

import (
	"runtime"
	"time"
)

const (
	DefaultPollLimit   = 20000
	DefaultPollBackoff = 20 * time.Microsecond
)

// Waiter bounds the busy-wait on TWINT.
type Waiter struct {
	// Limit is the maximum number of TWCR reads per wait.
	Limit int
	// Backoff is slept between reads; zero yields the processor instead.
	Backoff time.Duration
}

// DefaultWaiter is used when no Waiter option is given.
var DefaultWaiter = Waiter{Limit: DefaultPollLimit, Backoff: DefaultPollBackoff}

// flag polls until TWINT is set or the limit is reached.
func (w Waiter) flag(regs Registers) bool {
	limit := w.Limit
	if limit <= 0 {
		limit = DefaultPollLimit
	}
	for i := 0; i < limit; i++ {
		if regs.Read(TWCR)&TWINT != 0 {
			return true
		}
		if w.Backoff > 0 {
			time.Sleep(w.Backoff)
		} else {
			runtime.Gosched()
		}
	}
	return false
}
