package twi

import (
	"errors"
	"fmt"
)

var (
	ErrBusTimeout       = errors.New("timed out waiting for bus")
	ErrLinkNack         = errors.New("peer did not acknowledge")
	ErrArbitrationLost  = errors.New("arbitration lost")
	ErrUnexpectedStatus = errors.New("unexpected bus status")
	ErrEmptyBuffer      = errors.New("receive buffer is empty")
)

// Phase is the wire-level step a transfer was in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStart
	PhaseAddress
	PhaseData
	PhaseStop
	PhaseReceive
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStart:
		return "start"
	case PhaseAddress:
		return "address"
	case PhaseData:
		return "data"
	case PhaseStop:
		return "stop"
	case PhaseReceive:
		return "receive"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// StatusError reports the status register value that ended a transfer.
type StatusError struct {
	Phase  Phase
	Status Status
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("twi %s: %v (status %s)", e.Phase, e.Err, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }
