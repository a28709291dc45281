package service

import (
	"context"
	"errors"
	"log"

	"github.com/pirguard/pirguard/internal/pirguard/twi"
	"github.com/pirguard/pirguard/internal/pirguard/types"
)

type ListenerDeps struct {
	Logger     *log.Logger
	Bus        BusReceiver
	Address    uint8 // own 7-bit address
	Dispatcher *Dispatcher
	Link       LinkObserver // optional
}

// Listener is the slave's main loop: receive a frame, decode it and hand
// it to the Dispatcher.
type Listener struct {
	d ListenerDeps
}

func NewListener(d ListenerDeps) *Listener {
	d.Logger = orDiscard(d.Logger)
	return &Listener{d: d}
}

// Run configures the bus, shows the welcome screen and serves frames
// until ctx is cancelled. Transfer errors are logged and the loop goes
// on with the next frame.
func (l *Listener) Run(ctx context.Context) error {
	l.d.Bus.Configure(l.d.Address)
	if err := l.d.Dispatcher.Welcome(); err != nil {
		l.d.Logger.Printf("welcome screen: %v", err)
	}
	l.d.Logger.Printf("listening addr=0x%02X", l.d.Address)

	for {
		msg, err := l.ReceiveOne(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			l.d.Logger.Printf("receive: %v", err)
			continue
		}
		if err := l.d.Dispatcher.Dispatch(ctx, msg); err != nil {
			l.d.Logger.Printf("dispatch %s: %v", msg.Tag, err)
		}
	}
}

// ReceiveOne waits for a single frame and decodes it. Frames with an
// unknown tag or no content are reported as errors without touching the
// link state, since the transfer itself succeeded.
func (l *Listener) ReceiveOne(ctx context.Context) (types.BusMessage, error) {
	var buf [types.MaxMessageSize]byte
	n, err := l.d.Bus.Receive(ctx, buf[:])
	if err != nil {
		if ctx.Err() == nil {
			l.setLink(false)
			if errors.Is(err, twi.ErrBusTimeout) {
				// drop whatever state the controller was left in
				l.d.Bus.Configure(l.d.Address)
			}
		}
		return types.BusMessage{}, err
	}
	l.setLink(true)
	return types.DecodeMessage(buf[:n])
}

func (l *Listener) setLink(ok bool) {
	l.d.Dispatcher.SetLink(ok)
	if l.d.Link != nil {
		l.d.Link.SetLink(ok)
	}
}
