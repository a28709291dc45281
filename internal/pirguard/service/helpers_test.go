package service_test

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/pirguard/pirguard/internal/pirguard/countdown"
	halsim "github.com/pirguard/pirguard/internal/pirguard/hal/sim"
	"github.com/pirguard/pirguard/internal/pirguard/keypad"
	"github.com/pirguard/pirguard/internal/pirguard/service"
	"github.com/pirguard/pirguard/internal/pirguard/store"
	"github.com/pirguard/pirguard/internal/pirguard/store/memory"
	"github.com/pirguard/pirguard/internal/pirguard/twi"
	"github.com/pirguard/pirguard/internal/pirguard/types"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fakeBus records every message handed to the transport.
type fakeBus struct {
	mu    sync.Mutex
	inits int
	addrs []uint8
	sent  []types.BusMessage
	err   error
}

func (f *fakeBus) Init() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
}

func (f *fakeBus) Transmit(addr uint8, data []byte) (twi.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, _ := types.DecodeMessage(data)
	f.addrs = append(f.addrs, addr)
	f.sent = append(f.sent, msg)
	return twi.Result{Sent: len(data)}, f.err
}

func (f *fakeBus) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeBus) messages() []types.BusMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.BusMessage(nil), f.sent...)
}

func (f *fakeBus) initCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inits
}

type linkRecorder struct {
	mu  sync.Mutex
	log []bool
}

func (l *linkRecorder) SetLink(ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = append(l.log, ok)
}

func (l *linkRecorder) last() (bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.log) == 0 {
		return false, false
	}
	return l.log[len(l.log)-1], true
}

type harness struct {
	ctx    context.Context
	bus    *fakeBus
	src    *countdown.ManualSource
	timer  *countdown.Timer
	keys   *halsim.Keypad
	motion *halsim.Pin
	rearm  *halsim.Pin
	alarm  *halsim.Pin
	link   *halsim.Pin
	events *memory.EventStore
	codes  *memory.ByteStore
	health *linkRecorder
	c      *service.Controller
}

func newHarness(t *testing.T, code string, match keypad.MatchMode) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		ctx:    ctx,
		bus:    &fakeBus{},
		src:    &countdown.ManualSource{},
		keys:   halsim.NewKeypad(32),
		motion: &halsim.Pin{},
		rearm:  &halsim.Pin{},
		alarm:  &halsim.Pin{},
		link:   &halsim.Pin{},
		events: memory.NewEventStore(),
		codes:  memory.NewByteStore(),
		health: &linkRecorder{},
	}
	h.timer = countdown.New(h.src, countdown.DefaultThreshold)
	if err := store.WriteString(ctx, h.codes, store.CodeAddr, code); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	h.c = service.NewController(service.ControllerDeps{
		Logger:   silentLogger(),
		Bus:      h.bus,
		Address:  0x55,
		Timer:    h.timer,
		Keypad:   h.keys,
		Motion:   h.motion,
		Rearm:    h.rearm,
		AlarmOut: h.alarm,
		LinkLED:  h.link,
		Codes:    h.codes,
		Match:    match,
		Events:   h.events,
		Link:     h.health,
	})
	t.Cleanup(h.c.Close)
	return h
}

func (h *harness) step(t *testing.T) {
	t.Helper()
	if err := h.c.Step(h.ctx); err != nil {
		t.Fatalf("Step in %s: %v", h.c.State(), err)
	}
}

// arm drives the controller from Idle into AwaitingCode.
func (h *harness) arm(t *testing.T) {
	t.Helper()
	_ = h.motion.Set(true)
	h.step(t)
	_ = h.motion.Set(false)
	h.step(t)
	if got := h.c.State(); got != types.StateAwaitingCode {
		t.Fatalf("expected awaiting_code, got %s", got)
	}
}

func tags(msgs []types.BusMessage) string {
	out := make([]byte, len(msgs))
	for i, m := range msgs {
		out[i] = byte(m.Tag)
	}
	return string(out)
}
