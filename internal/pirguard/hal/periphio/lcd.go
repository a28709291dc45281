package periphio

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// DefaultLCDAddress is the usual PCF8574 backpack address.
const DefaultLCDAddress = 0x27

// PCF8574 pin mapping on the common HD44780 backpack.
const (
	lcdRS        = 1 << 0
	lcdEnable    = 1 << 2
	lcdBacklight = 1 << 3
)

// HD44780 instructions.
const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // increment, no shift
	cmdDisplayOn   = 0x0C // display on, cursor off
	cmdFunctionSet = 0x28 // 4-bit, two lines, 5x8
	cmdSetDDRAM    = 0x80
)

var rowOffsets = [2]byte{0x00, 0x40}

// LCD is a two-row HD44780 character display behind a PCF8574 I2C
// expander, driven in 4-bit mode.
type LCD struct {
	dev   *i2c.Dev
	close func() error
}

// OpenLCD opens the named I2C bus ("" for the first one) and initialises
// the display at addr.
func OpenLCD(busName string, addr uint16) (*LCD, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	l, err := NewLCD(bus, addr)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	l.close = bus.Close
	return l, nil
}

// NewLCD initialises a display on an already open bus.
func NewLCD(bus i2c.Bus, addr uint16) (*LCD, error) {
	l := &LCD{dev: &i2c.Dev{Bus: bus, Addr: addr}}
	if err := l.init(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LCD) init() error {
	time.Sleep(50 * time.Millisecond)
	// Three 8-bit resets, then switch to 4-bit.
	for _, n := range []byte{0x03, 0x03, 0x03, 0x02} {
		if err := l.nibble(n<<4, 0); err != nil {
			return fmt.Errorf("lcd reset: %w", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	for _, c := range []byte{cmdFunctionSet, cmdDisplayOn, cmdClear, cmdEntryMode} {
		if err := l.command(c); err != nil {
			return fmt.Errorf("lcd init: %w", err)
		}
	}
	time.Sleep(2 * time.Millisecond)
	return nil
}

func (l *LCD) Clear() error {
	if err := l.command(cmdClear); err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond)
	return nil
}

func (l *LCD) Goto(col, row int) error {
	if row < 0 || row > 1 {
		row = 0
	}
	return l.command(cmdSetDDRAM | (rowOffsets[row] + byte(col)))
}

func (l *LCD) Write(s string) error {
	for i := 0; i < len(s); i++ {
		if err := l.send(s[i], lcdRS); err != nil {
			return err
		}
	}
	return nil
}

func (l *LCD) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}

func (l *LCD) command(c byte) error { return l.send(c, 0) }

func (l *LCD) send(b, mode byte) error {
	if err := l.nibble(b&0xF0, mode); err != nil {
		return err
	}
	return l.nibble(b<<4, mode)
}

// nibble clocks the high four bits of b into the controller.
func (l *LCD) nibble(b, mode byte) error {
	v := b&0xF0 | mode | lcdBacklight
	if err := l.dev.Tx([]byte{v | lcdEnable, v}, nil); err != nil {
		return fmt.Errorf("lcd write: %w", err)
	}
	return nil
}
