// Package countdown implements the 1 Hz CTC countdown that starts when
// motion is detected and raises the alarm once the threshold is reached.
package countdown

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultThreshold is the countdown length in seconds.
	DefaultThreshold = 10

	// TickPeriod is the compare-match period.
	TickPeriod = time.Second

	cpuHz     = 16_000_000
	prescaler = 1024

	// OneSecondCompare is the OCRA value giving a 1 Hz match at 16 MHz
	// with the /1024 prescaler.
	OneSecondCompare = cpuHz/prescaler - 1
)

// Control register bits used by the countdown.
const (
	COMA0        uint8 = 1 << 6 // TCCRA: toggle OCA on match
	WGM2         uint8 = 1 << 3 // TCCRB: CTC, TOP = OCRA
	CSPrescale1K uint8 = 0b101  // TCCRB: clk/1024
	OCIEA        uint8 = 1 << 1 // TIMSK: compare A interrupt enable
)

// Registers is the image of the timer's hardware registers.
type Registers struct {
	TCCRA uint8
	TCCRB uint8
	TCNT  uint16
	OCRA  uint16
	TIMSK uint8
}

// TickSource delivers compare-match interrupts. Stop must not wait for an
// in-flight handler; the handler itself may call it.
type TickSource interface {
	Start(period time.Duration, isr func())
	Stop()
}

// Timer is shared between the main loop and the interrupt handler. The
// handler only touches the atomics, the register image and the alarm
// channel; it performs no other I/O.
type Timer struct {
	src       TickSource
	threshold uint32

	mu   sync.Mutex // register image and run generation
	regs Registers
	gen  uint64

	running atomic.Bool
	ticks   atomic.Uint32
	alarm   atomic.Bool
	alarmCh chan struct{}
}

func New(src TickSource, threshold uint32) *Timer {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &Timer{
		src:       src,
		threshold: threshold,
		alarmCh:   make(chan struct{}, 1),
	}
}

// Start programs CTC mode with a one second period, clears the tick
// counter and the alarm flag, and enables the interrupt.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.src.Stop()
	t.regs = Registers{}
	t.regs.TCCRA |= COMA0
	t.regs.TCCRB |= WGM2 | CSPrescale1K
	t.regs.OCRA = OneSecondCompare
	t.regs.TIMSK |= OCIEA

	t.ticks.Store(0)
	t.clearAlarm()
	t.gen++
	gen := t.gen
	t.running.Store(true)
	t.src.Start(TickPeriod, func() { t.compareMatch(gen) })
}

// Stop disables the interrupt and returns every register to zero. The
// tick count is kept so the caller can read how long disarming took.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disableLocked()
}

// Reset zeroes the tick counter and clears the alarm flag.
func (t *Timer) Reset() {
	t.ticks.Store(0)
	t.clearAlarm()
}

// HandleCompareMatch raises one compare-match interrupt for the current
// run.
func (t *Timer) HandleCompareMatch() {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()
	t.compareMatch(gen)
}

// compareMatch is the handler installed by Start. A handler left over from
// an earlier run is ignored even if it fires after the next Start.
func (t *Timer) compareMatch(gen uint64) {
	if !t.running.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running.Load() || gen != t.gen {
		return
	}

	t.regs.TCNT = 0
	if t.ticks.Add(1) < t.threshold {
		return
	}
	t.alarm.Store(true)
	select {
	case t.alarmCh <- struct{}{}:
	default:
	}
	t.disableLocked()
}

func (t *Timer) disableLocked() {
	t.running.Store(false)
	t.src.Stop()
	t.regs = Registers{}
}

func (t *Timer) clearAlarm() {
	t.alarm.Store(false)
	select {
	case <-t.alarmCh:
	default:
	}
}

// Alarm is signalled once each time the countdown expires.
func (t *Timer) Alarm() <-chan struct{} { return t.alarmCh }

func (t *Timer) AlarmTriggered() bool { return t.alarm.Load() }

func (t *Timer) Ticks() uint32 { return t.ticks.Load() }

func (t *Timer) Running() bool { return t.running.Load() }

func (t *Timer) Threshold() uint32 { return t.threshold }

// Registers returns a snapshot of the register image.
func (t *Timer) Registers() Registers {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.regs
}
