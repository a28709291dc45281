package twi_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/twi"
)

func dataSteps(b []byte) []step {
	out := make([]step, 0, len(b))
	for _, c := range b {
		out = append(out, step{status: twi.StatusSRDataAck, data: c})
	}
	return out
}

func TestReceive_StopsAtTerminator(t *testing.T) {
	steps := []step{{status: twi.StatusSRSlaAck}}
	steps = append(steps, dataSteps([]byte{'C', '0', '4', '2', '3', 0})...)
	steps = append(steps, step{status: twi.StatusSRStop})
	regs := newScriptRegs(steps...)
	regs.raise()

	s := twi.NewSlave(regs, twi.WithWaiter(fastWaiter))
	buf := bytes.Repeat([]byte{0xEE}, twi.MaxFrame)

	n, err := s.Receive(context.Background(), buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got := string(buf[:n]); got != "C0423" {
		t.Errorf("expected C0423, got %q", got)
	}
	if buf[n] != 0 {
		t.Error("expected terminator stored")
	}
	if buf[n+1] != 0xEE {
		t.Error("bytes past the terminator must be left as they were")
	}
}

func TestReceive_FillsCapWithoutTerminator(t *testing.T) {
	payload := []byte("T123456789ABCDEF")
	steps := []step{{status: twi.StatusSRSlaAck}}
	steps = append(steps, dataSteps(payload[:twi.MaxFrame-1])...)
	steps = append(steps, step{status: twi.StatusSRDataNack, data: payload[twi.MaxFrame-1]})
	regs := newScriptRegs(steps...)
	regs.raise()

	s := twi.NewSlave(regs, twi.WithWaiter(fastWaiter))
	buf := make([]byte, twi.MaxFrame)

	n, err := s.Receive(context.Background(), buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if n != twi.MaxFrame {
		t.Fatalf("expected %d bytes, got %d", twi.MaxFrame, n)
	}
	if !bytes.Equal(buf, payload) {
		t.Errorf("expected %q, got %q", payload, buf)
	}

	// the release before the last byte must withhold the acknowledgement
	ctrl := regs.controlWrites()
	lastRelease := ctrl[len(ctrl)-2]
	if lastRelease&twi.TWEA != 0 {
		t.Errorf("expected NACK release before final slot, got TWCR=0x%02X", lastRelease)
	}
}

func TestReceive_StopBeforeTerminator(t *testing.T) {
	steps := []step{{status: twi.StatusSRSlaAck}}
	steps = append(steps, dataSteps([]byte{'M'})...)
	steps = append(steps, step{status: twi.StatusSRStop})
	regs := newScriptRegs(steps...)
	regs.raise()

	s := twi.NewSlave(regs, twi.WithWaiter(fastWaiter))
	buf := make([]byte, twi.MaxFrame)

	n, err := s.Receive(context.Background(), buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if n != 1 || buf[0] != 'M' {
		t.Errorf("expected single byte M, got %q", buf[:n])
	}
}

func TestReceive_SkipsStaleStop(t *testing.T) {
	steps := []step{{status: twi.StatusSRStop}, {status: twi.StatusSRGCAck}}
	steps = append(steps, step{status: twi.StatusSRGCDataAck, data: 'R'}, step{status: twi.StatusSRGCDataAck, data: 0})
	steps = append(steps, step{status: twi.StatusSRStop})
	regs := newScriptRegs(steps...)
	regs.raise()

	s := twi.NewSlave(regs, twi.WithWaiter(fastWaiter))
	buf := make([]byte, twi.MaxFrame)

	n, err := s.Receive(context.Background(), buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(buf[:n]) != "R" {
		t.Errorf("expected R, got %q", buf[:n])
	}
}

func TestReceive_MidFrameTimeout(t *testing.T) {
	regs := newScriptRegs(step{status: twi.StatusSRSlaAck}, step{status: twi.StatusSRDataAck, data: 'W'})
	regs.raise()

	s := twi.NewSlave(regs, twi.WithWaiter(fastWaiter))
	buf := make([]byte, twi.MaxFrame)

	n, err := s.Receive(context.Background(), buf)
	if !errors.Is(err, twi.ErrBusTimeout) {
		t.Fatalf("expected ErrBusTimeout, got %v", err)
	}
	if n != 1 {
		t.Errorf("expected the one byte received so far, got %d", n)
	}
}

func TestReceive_IdleHonoursContext(t *testing.T) {
	regs := newScriptRegs()
	idle := 0
	s := twi.NewSlave(regs, twi.WithIdlePoll(time.Millisecond), twi.WithIdleHook(0, func() { idle++ }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := s.Receive(ctx, make([]byte, 4)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if idle == 0 {
		t.Error("expected the idle hook to run while waiting")
	}
}

func TestConfigure_SetsAddressAndAck(t *testing.T) {
	regs := newScriptRegs()
	twi.NewSlave(regs).Configure(0x55)

	if got := regs.Read(twi.TWAR); got != 170 {
		t.Errorf("expected TWAR=170, got %d", got)
	}
	ctrl := regs.Read(twi.TWCR)
	if ctrl&(twi.TWEA|twi.TWEN) != twi.TWEA|twi.TWEN {
		t.Errorf("expected TWEA|TWEN, got 0x%02X", ctrl)
	}
	if ctrl&(twi.TWSTA|twi.TWSTO) != 0 {
		t.Errorf("expected start/stop cleared, got 0x%02X", ctrl)
	}
}

func TestReceive_EmptyBuffer(t *testing.T) {
	s := twi.NewSlave(newScriptRegs())
	if _, err := s.Receive(context.Background(), nil); !errors.Is(err, twi.ErrEmptyBuffer) {
		t.Fatalf("expected ErrEmptyBuffer, got %v", err)
	}
}
