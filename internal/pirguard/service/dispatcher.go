package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/hal"
	"github.com/pirguard/pirguard/internal/pirguard/store"
	"github.com/pirguard/pirguard/internal/pirguard/types"
)

// Display rows shown by the slave.
const (
	WelcomeText     = "Welcome!"
	StatusText      = "Status:"
	MovementText    = "Movement!"
	CorrectCodeText = "Correct Password"
	WrongCodeText   = "Wrong Password:"
	TimesUpText     = "TIME IS UP!"
	ArmedText       = "Armed"
)

type DispatcherDeps struct {
	Logger  *log.Logger
	Display hal.Display
	Tone    hal.Tone
	Events  store.EventStore
}

// Dispatcher turns received bus messages into display and tone output on
// the slave.
type Dispatcher struct {
	d DispatcherDeps

	mu      sync.Mutex
	last    types.EventTag
	alarm   bool
	linkOK  bool
	handled int
}

func NewDispatcher(d DispatcherDeps) *Dispatcher {
	d.Logger = orDiscard(d.Logger)
	return &Dispatcher{d: d, linkOK: true}
}

// Welcome shows the boot screen.
func (p *Dispatcher) Welcome() error {
	return hal.ShowLines(p.d.Display, WelcomeText, "")
}

// Dispatch updates the outputs for msg. Output errors are returned after
// the event has been recorded.
func (p *Dispatcher) Dispatch(ctx context.Context, msg types.BusMessage) error {
	var (
		top, bottom string
		tone        bool
	)
	switch msg.Tag {
	case types.TagMovement:
		top, bottom = StatusText, MovementText
		tone = p.alarmOn()
	case types.TagCorrectCode:
		top, bottom = CorrectCodeText, msg.Payload
	case types.TagWrongCode:
		top, bottom, tone = WrongCodeText, msg.Payload, true
	case types.TagTimesUp:
		top, bottom, tone = StatusText, TimesUpText, true
	case types.TagRearm:
		top, bottom = StatusText, ArmedText
	default:
		p.d.Logger.Printf("ignoring %s", msg.Tag)
		return nil
	}

	err := hal.ShowLines(p.d.Display, top, bottom)
	if tone {
		if terr := p.d.Tone.Play(hal.NoteC3); err == nil {
			err = terr
		}
	} else if terr := p.d.Tone.Stop(); err == nil {
		err = terr
	}

	p.mu.Lock()
	p.last = msg.Tag
	p.alarm = tone
	p.handled++
	p.mu.Unlock()

	p.d.Logger.Printf("dispatched %s tone=%t", msg.Tag, tone)
	p.recordEvent(ctx, msg, err)
	return err
}

func (p *Dispatcher) alarmOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alarm
}

// SetLink records the health of the last reception for Status.
func (p *Dispatcher) SetLink(ok bool) {
	p.mu.Lock()
	p.linkOK = ok
	p.mu.Unlock()
}

func (p *Dispatcher) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{
		Role:    "slave",
		State:   presentation(p.last),
		Alarm:   p.alarm,
		LinkOK:  p.linkOK,
		Handled: p.handled,
	}
	if p.last != 0 {
		st.LastEvent = p.last.String()
	}
	return st
}

func presentation(t types.EventTag) string {
	switch t {
	case 0:
		return "welcome"
	case types.TagMovement:
		return "movement"
	case types.TagCorrectCode:
		return "disarmed"
	case types.TagWrongCode, types.TagTimesUp:
		return "alarm"
	default:
		return "armed"
	}
}

func (p *Dispatcher) recordEvent(ctx context.Context, msg types.BusMessage, outErr error) {
	if p.d.Events == nil {
		return
	}
	rec := store.SecurityEventRecord{
		Node:      store.NodeSlave,
		Tag:       msg.Tag,
		Payload:   store.MaskPayload(msg.Tag, msg.Payload),
		Delivered: outErr == nil,
		At:        time.Now().UTC(),
	}
	if outErr != nil {
		rec.Reason = outErr.Error()
	}
	if err := p.d.Events.RecordEvent(ctx, rec); err != nil {
		p.d.Logger.Printf("record event %s: %v", msg.Tag, err)
	}
}
