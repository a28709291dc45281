package countdown

import (
	"sync"
	"time"
)

// TickerSource raises the compare-match interrupt from a time.Ticker
// goroutine.
type TickerSource struct {
	mu   sync.Mutex
	stop chan struct{}
}

func NewTickerSource() *TickerSource { return &TickerSource{} }

func (s *TickerSource) Start(period time.Duration, isr func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	stop := make(chan struct{})
	s.stop = stop
	go func() {
		tk := time.NewTicker(period)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				isr()
			}
		}
	}()
}

func (s *TickerSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *TickerSource) stopLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// ManualSource fires the interrupt only when told to. Useful wherever
// wall-clock ticks are unwanted.
type ManualSource struct {
	mu      sync.Mutex
	isr     func()
	enabled bool
}

func (s *ManualSource) Start(_ time.Duration, isr func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isr = isr
	s.enabled = true
}

func (s *ManualSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
}

// Fire raises n interrupts. It returns how many were delivered.
func (s *ManualSource) Fire(n int) int {
	delivered := 0
	for i := 0; i < n; i++ {
		s.mu.Lock()
		isr, on := s.isr, s.enabled
		s.mu.Unlock()
		if !on || isr == nil {
			break
		}
		isr()
		delivered++
	}
	return delivered
}

func (s *ManualSource) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}
