package main

import (
	"log"
	"strings"

	"github.com/pirguard/pirguard/internal/config"
	"github.com/pirguard/pirguard/internal/pirguard/hal"
	"github.com/pirguard/pirguard/internal/pirguard/hal/periphio"
	halsim "github.com/pirguard/pirguard/internal/pirguard/hal/sim"
)

// board is the set of peripherals one process drives.
type board struct {
	motion   hal.InputPin
	rearm    hal.InputPin
	alarmOut hal.OutputPin
	linkLED  hal.OutputPin
	waitLED  hal.OutputPin
	tone     hal.Tone
	display  hal.Display

	// set for simulated inputs, driven from the bench console
	simMotion *halsim.Pin
	simRearm  *halsim.Pin

	close func()
}

func openBoard(cfg config.Config, logger *log.Logger) (*board, error) {
	if cfg.Pins != "periph" {
		motion, rearm := &halsim.Pin{}, &halsim.Pin{}
		return &board{
			motion:    motion,
			rearm:     rearm,
			alarmOut:  &loggedPin{name: "alarm", logger: logger},
			linkLED:   &loggedPin{name: "link", logger: logger},
			waitLED:   &halsim.Pin{},
			tone:      &loggedTone{logger: logger},
			display:   &loggedDisplay{Display: halsim.NewDisplay(), logger: logger},
			simMotion: motion,
			simRearm:  rearm,
			close:     func() {},
		}, nil
	}

	if err := periphio.Init(); err != nil {
		return nil, err
	}
	n := cfg.PinNames
	b := &board{close: func() {}}
	var err error
	if b.motion, err = periphio.OpenInput(n.PIR); err != nil {
		return nil, err
	}
	if b.rearm, err = periphio.OpenInput(n.Rearm); err != nil {
		return nil, err
	}
	if b.alarmOut, err = periphio.OpenOutput(n.Alarm); err != nil {
		return nil, err
	}
	if b.linkLED, err = periphio.OpenOutput(n.Link); err != nil {
		return nil, err
	}
	if b.waitLED, err = periphio.OpenOutput(n.Wait); err != nil {
		return nil, err
	}
	if b.tone, err = periphio.OpenBuzzer(n.Buzzer); err != nil {
		return nil, err
	}
	lcd, err := periphio.OpenLCD(cfg.I2CBus, cfg.LCDAddr)
	if err != nil {
		logger.Printf("lcd unavailable, display goes to the log: %v", err)
		b.display = &loggedDisplay{Display: halsim.NewDisplay(), logger: logger}
	} else {
		b.display = lcd
		b.close = func() { _ = lcd.Close() }
	}
	return b, nil
}

// loggedPin is a simulated output that logs level changes.
type loggedPin struct {
	halsim.Pin
	name   string
	logger *log.Logger
}

func (p *loggedPin) Set(on bool) error {
	if p.Level() != on {
		p.logger.Printf("%s output=%t", p.name, on)
	}
	return p.Pin.Set(on)
}

type loggedTone struct {
	halsim.Tone
	logger *log.Logger
}

func (t *loggedTone) Play(hz float64) error {
	t.logger.Printf("tone on %.2fHz", hz)
	return t.Tone.Play(hz)
}

func (t *loggedTone) Stop() error {
	if _, on := t.Playing(); on {
		t.logger.Printf("tone off")
	}
	return t.Tone.Stop()
}

// loggedDisplay prints the whole screen after each write.
type loggedDisplay struct {
	*halsim.Display
	logger *log.Logger
}

func (d *loggedDisplay) Write(s string) error {
	if err := d.Display.Write(s); err != nil {
		return err
	}
	top, bottom := d.Lines()
	d.logger.Printf("display [%s] [%s]", pad(top), pad(bottom))
	return nil
}

func pad(s string) string {
	if len(s) >= hal.DisplayColumns {
		return s[:hal.DisplayColumns]
	}
	return s + strings.Repeat(" ", hal.DisplayColumns-len(s))
}
