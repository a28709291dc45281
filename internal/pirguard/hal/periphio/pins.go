// Package periphio drives the board peripherals through periph.io on a
// Linux host.
package periphio

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/pirguard/pirguard/internal/pirguard/hal"
)

// Init loads the host drivers. It must run before any pin is opened.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return nil
}

func lookup(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", hal.ErrPinNotFound, name)
	}
	return p, nil
}

// Input is a pulled-down digital input.
type Input struct {
	pin gpio.PinIO
}

func OpenInput(name string) (*Input, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := p.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure input %s: %w", name, err)
	}
	return &Input{pin: p}, nil
}

func (i *Input) Read() bool { return i.pin.Read() == gpio.High }

// Output is a push-pull digital output. The last level written is cached
// so Toggle does not read the pin back.
type Output struct {
	mu    sync.Mutex
	pin   gpio.PinIO
	level gpio.Level
}

func OpenOutput(name string) (*Output, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure output %s: %w", name, err)
	}
	return &Output{pin: p, level: gpio.Low}, nil
}

func (o *Output) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.writeLocked(gpio.Level(on))
}

func (o *Output) Toggle() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.writeLocked(!o.level)
}

func (o *Output) Level() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return bool(o.level)
}

func (o *Output) writeLocked(l gpio.Level) error {
	if err := o.pin.Out(l); err != nil {
		return fmt.Errorf("%s: %w", o.pin.Name(), err)
	}
	o.level = l
	return nil
}

// Buzzer plays a square wave on a PWM capable pin.
type Buzzer struct {
	pin gpio.PinIO
}

func OpenBuzzer(name string) (*Buzzer, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure buzzer %s: %w", name, err)
	}
	return &Buzzer{pin: p}, nil
}

func (b *Buzzer) Play(hz float64) error {
	f := physic.Frequency(hz * float64(physic.Hertz))
	if err := b.pin.PWM(gpio.DutyHalf, f); err != nil {
		return fmt.Errorf("buzzer %s: %w", b.pin.Name(), err)
	}
	return nil
}

func (b *Buzzer) Stop() error {
	return b.pin.Out(gpio.Low)
}
