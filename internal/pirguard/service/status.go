package service

import (
	"context"
	"io"
	"log"

	"github.com/pirguard/pirguard/internal/pirguard/twi"
)

// Status is a point-in-time view of a node for the status API.
type Status struct {
	Role      string
	State     string
	Ticks     uint32
	Alarm     bool
	LinkOK    bool
	LastEvent string
	Handled   int // messages dispatched, slave only
}

// StatusReporter is implemented by Controller and Dispatcher.
type StatusReporter interface {
	Status() Status
}

// LinkObserver is told whether the last bus transfer succeeded.
type LinkObserver interface {
	SetLink(ok bool)
}

// Transmitter is the master side of the bus. *twi.Master implements it.
type Transmitter interface {
	Init()
	Transmit(addr uint8, data []byte) (twi.Result, error)
}

// BusReceiver is the slave side of the bus. *twi.Slave implements it.
type BusReceiver interface {
	Configure(addr uint8)
	Receive(ctx context.Context, buf []byte) (int, error)
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard, "", 0)
	}
	return l
}
