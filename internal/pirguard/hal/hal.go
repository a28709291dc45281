// Package hal names the board peripherals the security nodes drive.
package hal

import (
	"context"
	"errors"

	"github.com/pirguard/pirguard/internal/pirguard/keypad"
)

// NoteC3 is the alarm tone in Hz.
const NoteC3 = 130.81

// DisplayColumns is the width of the character display.
const DisplayColumns = 16

var ErrPinNotFound = errors.New("pin not found")

// Keypad blocks until the next key press.
type Keypad interface {
	NextKey(ctx context.Context) (keypad.Key, error)
}

// Display is a two-row character display.
type Display interface {
	Clear() error
	Goto(col, row int) error
	Write(s string) error
}

// InputPin is a digital input such as the PIR sensor or the re-arm button.
type InputPin interface {
	Read() bool
}

// OutputPin is a digital output such as an LED.
type OutputPin interface {
	Set(on bool) error
	Toggle() error
	Level() bool
}

// Tone drives the buzzer.
type Tone interface {
	Play(hz float64) error
	Stop() error
}

// ShowLines clears d and writes top and bottom on the two rows.
func ShowLines(d Display, top, bottom string) error {
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.Goto(0, 0); err != nil {
		return err
	}
	if err := d.Write(top); err != nil {
		return err
	}
	if bottom == "" {
		return nil
	}
	if err := d.Goto(0, 1); err != nil {
		return err
	}
	return d.Write(bottom)
}
