package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/countdown"
	"github.com/pirguard/pirguard/internal/pirguard/hal"
	"github.com/pirguard/pirguard/internal/pirguard/keypad"
	"github.com/pirguard/pirguard/internal/pirguard/store"
	"github.com/pirguard/pirguard/internal/pirguard/types"
)

// DefaultPollInterval is how often Idle and Disarmed sample their input.
const DefaultPollInterval = 20 * time.Millisecond

// ControllerDeps wires the master node.
type ControllerDeps struct {
	Logger *log.Logger

	Bus     Transmitter
	Address uint8 // 7-bit slave address

	Timer  *countdown.Timer
	Keypad hal.Keypad

	Motion   hal.InputPin
	Rearm    hal.InputPin
	AlarmOut hal.OutputPin
	LinkLED  hal.OutputPin

	Codes  store.ByteStore
	Match  keypad.MatchMode
	Events store.EventStore
	Link   LinkObserver // optional

	PollInterval time.Duration
}

// Controller runs the master's security state machine. Step and Run must
// be called from a single goroutine; Status is safe from any goroutine.
type Controller struct {
	d ControllerDeps

	state    atomic.Int32
	linkOK   atomic.Bool
	lastTag  atomic.Uint32
	attempts atomic.Uint32

	// life bounds the key pump; it outlives any single Step call
	life     context.Context
	close    context.CancelFunc
	pumpOnce sync.Once
	keys     chan keyResult
}

// ErrControllerClosed is returned by Step after Close.
var ErrControllerClosed = errors.New("controller closed")

type keyResult struct {
	key keypad.Key
	err error
}

func NewController(d ControllerDeps) *Controller {
	d.Logger = orDiscard(d.Logger)
	if d.PollInterval <= 0 {
		d.PollInterval = DefaultPollInterval
	}
	c := &Controller{d: d, keys: make(chan keyResult)}
	c.life, c.close = context.WithCancel(context.Background())
	c.linkOK.Store(true)
	return c
}

// Close stops the key pump. A code attempt in progress returns
// ErrControllerClosed.
func (c *Controller) Close() {
	c.close()
}

func (c *Controller) State() types.SecurityState {
	return types.SecurityState(c.state.Load())
}

func (c *Controller) Status() Status {
	st := Status{
		Role:   "master",
		State:  c.State().String(),
		Ticks:  c.d.Timer.Ticks(),
		Alarm:  c.d.AlarmOut.Level(),
		LinkOK: c.linkOK.Load(),
	}
	if t := c.lastTag.Load(); t != 0 {
		st.LastEvent = types.EventTag(t).String()
	}
	return st
}

// Run steps the state machine until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.d.Logger.Printf("controller started state=%s", c.State())
	for {
		if err := c.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Step performs the work of the current state once. In Idle and Disarmed
// that is a single input sample followed by a poll interval wait when the
// input is low. In AwaitingCode it blocks for one complete code attempt.
func (c *Controller) Step(ctx context.Context) error {
	switch c.State() {
	case types.StateIdle:
		if !c.d.Motion.Read() {
			return c.pause(ctx)
		}
		c.d.Logger.Printf("motion detected")
		c.send(ctx, types.BusMessage{Tag: types.TagMovement})
		c.setState(types.StateTimerArmed)

	case types.StateTimerArmed:
		c.drainKeys()
		c.d.Timer.Start()
		c.attempts.Store(0)
		c.setState(types.StateAwaitingCode)

	case types.StateAwaitingCode:
		return c.awaitCode(ctx)

	case types.StateDisarmed:
		if !c.d.Rearm.Read() {
			return c.pause(ctx)
		}
		c.d.Timer.Reset()
		c.send(ctx, types.BusMessage{Tag: types.TagRearm})
		c.setState(types.StateIdle)
	}
	return nil
}

func (c *Controller) awaitCode(ctx context.Context) error {
	buf := keypad.NewCodeBuffer(keypad.CodeLength)
	if err := keypad.ReadCode(ctx, alarmAware{c: c}, buf); err != nil {
		return err
	}
	entered := buf.String()
	n := c.attempts.Add(1)

	if c.verify(ctx, buf.Terminated()) {
		c.d.Timer.Stop()
		_ = c.d.AlarmOut.Set(false)
		c.d.Logger.Printf("code accepted attempt=%d ticks=%d", n, c.d.Timer.Ticks())
		c.send(ctx, types.BusMessage{Tag: types.TagCorrectCode, Payload: entered})
		c.setState(types.StateDisarmed)
		return nil
	}

	_ = c.d.AlarmOut.Set(true)
	c.d.Logger.Printf("code rejected attempt=%d", n)
	c.send(ctx, types.BusMessage{Tag: types.TagWrongCode, Payload: entered})
	return nil
}

func (c *Controller) verify(ctx context.Context, entered []byte) bool {
	correct, err := store.ReadString(ctx, c.d.Codes, store.CodeAddr, keypad.CodeLength)
	if err != nil {
		c.d.Logger.Printf("read stored code: %v", err)
		return false
	}
	return c.d.Match.Verify(entered, []byte(correct))
}

// timesUp runs on the main loop when the countdown expires during code
// entry. The state does not change.
func (c *Controller) timesUp(ctx context.Context) {
	_ = c.d.AlarmOut.Set(true)
	c.d.Logger.Printf("countdown expired ticks=%d", c.d.Timer.Ticks())
	c.send(ctx, types.BusMessage{Tag: types.TagTimesUp})
}

// send re-initialises the bus and transmits msg. Link failures are logged
// and recorded; the state machine carries on either way.
func (c *Controller) send(ctx context.Context, msg types.BusMessage) {
	c.d.Bus.Init()
	res, err := c.d.Bus.Transmit(c.d.Address, msg.Encode())
	c.lastTag.Store(uint32(msg.Tag))

	ok := err == nil
	c.linkOK.Store(ok)
	if c.d.LinkLED != nil {
		_ = c.d.LinkLED.Set(!ok)
	}
	if c.d.Link != nil {
		c.d.Link.SetLink(ok)
	}

	rec := store.SecurityEventRecord{
		Node:      store.NodeMaster,
		Tag:       msg.Tag,
		Payload:   store.MaskPayload(msg.Tag, msg.Payload),
		State:     c.State(),
		Delivered: ok,
		At:        time.Now().UTC(),
	}
	if err != nil {
		rec.Reason = err.Error()
		c.d.Logger.Printf("send %s failed sent=%d: %v", msg.Tag, res.Sent, err)
	} else {
		c.d.Logger.Printf("sent %s bytes=%d", msg.Tag, res.Sent)
	}
	c.recordEvent(ctx, rec)
}

// recordEvent writes to the audit log. Failures are logged only; the bus
// event has already happened.
func (c *Controller) recordEvent(ctx context.Context, rec store.SecurityEventRecord) {
	if c.d.Events == nil {
		return
	}
	if err := c.d.Events.RecordEvent(ctx, rec); err != nil && !errors.Is(err, context.Canceled) {
		c.d.Logger.Printf("record event %s: %v", rec.Tag, err)
	}
}

func (c *Controller) setState(s types.SecurityState) {
	old := types.SecurityState(c.state.Swap(int32(s)))
	if old != s {
		c.d.Logger.Printf("state %s -> %s", old, s)
	}
}

func (c *Controller) pause(ctx context.Context) error {
	t := time.NewTimer(c.d.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// pump moves key presses from the blocking keypad driver onto c.keys so
// the main loop can wait for a key and the countdown alarm together.
func (c *Controller) pump(ctx context.Context) {
	for {
		k, err := c.d.Keypad.NextKey(ctx)
		if err != nil {
			// keep reporting the failure to every later read
			for {
				select {
				case c.keys <- keyResult{err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
		select {
		case c.keys <- keyResult{key: k}:
		case <-ctx.Done():
			return
		}
	}
}

// drainKeys drops presses made while no code was being entered.
func (c *Controller) drainKeys() {
	for {
		select {
		case r := <-c.keys:
			if r.err != nil {
				return
			}
		default:
			return
		}
	}
}

// alarmAware is the key source used during code entry. While it waits for
// a key it also services the countdown alarm.
type alarmAware struct {
	c *Controller
}

func (a alarmAware) NextKey(ctx context.Context) (keypad.Key, error) {
	c := a.c
	if c.life.Err() != nil {
		return 0, ErrControllerClosed
	}
	c.pumpOnce.Do(func() { go c.pump(c.life) })
	for {
		// the alarm wins over a key that is already waiting
		select {
		case <-c.d.Timer.Alarm():
			c.timesUp(ctx)
			continue
		default:
		}
		select {
		case r := <-c.keys:
			if r.err != nil && c.life.Err() != nil {
				return 0, ErrControllerClosed
			}
			return r.key, r.err
		case <-c.d.Timer.Alarm():
			c.timesUp(ctx)
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-c.life.Done():
			return 0, ErrControllerClosed
		}
	}
}
