package twi

import (
	"bytes"
	"context"
	"time"
)

// Slave receives frames addressed to this node. It is not safe for
// concurrent use.
type Slave struct {
	regs Registers
	cfg  config
}

func NewSlave(regs Registers, opts ...Option) *Slave {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Slave{regs: regs, cfg: cfg}
}

// Configure sets the node's 7-bit address and arms address recognition.
// Stale start/stop requests are dropped.
func (s *Slave) Configure(addr uint8) {
	s.regs.Write(TWAR, addr<<1)
	s.regs.Write(TWCR, TWEA|TWEN)
}

// Receive blocks until a master addresses this node, then copies the frame
// into buf. It returns the number of bytes before the terminator, or the
// number of bytes stored when the frame filled buf (capped at MaxFrame).
// Bytes of buf past the terminator are left untouched.
//
// Waiting for the address phase honours ctx; every later wait is bounded
// by the configured Waiter.
func (s *Slave) Receive(ctx context.Context, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrEmptyBuffer
	}
	if len(buf) > MaxFrame {
		buf = buf[:MaxFrame]
	}

	if err := s.awaitAddressed(ctx); err != nil {
		return 0, err
	}

	n := 0
	s.release(len(buf) > 1)
	st, err := s.next()
	if err != nil {
		return 0, err
	}

	for st == StatusSRDataAck || st == StatusSRGCDataAck {
		buf[n] = s.regs.Read(TWDR)
		n++
		if buf[n-1] == 0 || n >= len(buf) {
			break
		}
		// refuse the byte that would fill the last slot
		s.release(n < len(buf)-1)
		if st, err = s.next(); err != nil {
			return payloadLen(buf[:n]), err
		}
	}

	switch st {
	case StatusSRDataNack, StatusSRGCDataNack:
		if n < len(buf) {
			buf[n] = s.regs.Read(TWDR)
			n++
		}
		s.release(true)
	case StatusSRStop:
		s.release(true)
	case StatusSRDataAck, StatusSRGCDataAck:
		// ended on terminator or cap while still addressed; the master
		// follows with a stop
		s.release(true)
		if st, err = s.next(); err != nil {
			return payloadLen(buf[:n]), err
		}
		s.release(true)
	default:
		s.release(true)
		return payloadLen(buf[:n]), &StatusError{Phase: PhaseReceive, Status: st, Err: ErrUnexpectedStatus}
	}
	return payloadLen(buf[:n]), nil
}

// awaitAddressed waits for TWINT with this node addressed, discarding any
// stale stop or bus error in between.
func (s *Slave) awaitAddressed(ctx context.Context) error {
	for {
		if err := s.awaitTraffic(ctx); err != nil {
			return err
		}
		switch st := readStatus(s.regs); st {
		case StatusSRSlaAck, StatusSRArbLostSlaAck, StatusSRGCAck, StatusSRArbLostGCAck:
			return nil
		case StatusBusError:
			s.regs.Write(TWCR, TWINT|TWSTO|TWEA|TWEN)
		default:
			s.release(true)
		}
	}
}

func (s *Slave) awaitTraffic(ctx context.Context) error {
	poll := time.NewTicker(s.cfg.idlePoll)
	defer poll.Stop()
	lastIdle := time.Now()

	for {
		if s.regs.Read(TWCR)&TWINT != 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
		}
		if s.cfg.onIdle != nil && time.Since(lastIdle) >= s.cfg.idleEvery {
			s.cfg.onIdle()
			lastIdle = time.Now()
		}
	}
}

func (s *Slave) next() (Status, error) {
	if !s.cfg.waiter.flag(s.regs) {
		st := readStatus(s.regs)
		return st, &StatusError{Phase: PhaseReceive, Status: st, Err: ErrBusTimeout}
	}
	return readStatus(s.regs), nil
}

// release clears TWINT, acknowledging the next byte when ack is set.
func (s *Slave) release(ack bool) {
	v := TWINT | TWEN
	if ack {
		v |= TWEA
	}
	s.regs.Write(TWCR, v)
}

func payloadLen(b []byte) int {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return i
	}
	return len(b)
}
