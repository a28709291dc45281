package periphio

import (
	"bytes"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"

	"github.com/pirguard/pirguard/internal/pirguard/twi"
)

// BusMaster sends frames through the host's own I2C controller. The
// kernel driver runs the start, address, data and stop phases, so a
// failure only says that the transfer was not acknowledged.
type BusMaster struct {
	bus   i2c.Bus
	close func() error
}

// OpenBusMaster opens the named I2C bus ("" for the first one).
func OpenBusMaster(name string) (*BusMaster, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return &BusMaster{bus: bus, close: bus.Close}, nil
}

func NewBusMaster(bus i2c.Bus) *BusMaster {
	return &BusMaster{bus: bus}
}

// Init is a no-op; the kernel driver owns the controller setup.
func (b *BusMaster) Init() {}

// Transmit writes data up to and including its first null byte, capped
// at twi.MaxFrame bytes, in a single write transaction.
func (b *BusMaster) Transmit(addr uint8, data []byte) (twi.Result, error) {
	frame := data
	if i := bytes.IndexByte(frame, 0); i >= 0 {
		frame = frame[:i+1]
	}
	if len(frame) > twi.MaxFrame {
		frame = frame[:twi.MaxFrame]
	}
	if err := b.bus.Tx(uint16(addr), frame, nil); err != nil {
		return twi.Result{}, fmt.Errorf("%w: %v", twi.ErrLinkNack, err)
	}
	return twi.Result{Sent: len(frame)}, nil
}

func (b *BusMaster) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}
