// Package sim provides in-memory peripherals for the simulated board and
// for tests.
package sim

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pirguard/pirguard/internal/pirguard/keypad"
)

// ErrKeypadClosed is returned by NextKey after Close.
var ErrKeypadClosed = errors.New("keypad closed")

// Keypad delivers keys queued with Press or Type.
type Keypad struct {
	keys chan keypad.Key
	once sync.Once
	done chan struct{}
}

func NewKeypad(buffer int) *Keypad {
	return &Keypad{
		keys: make(chan keypad.Key, buffer),
		done: make(chan struct{}),
	}
}

func (k *Keypad) NextKey(ctx context.Context) (keypad.Key, error) {
	select {
	case key := <-k.keys:
		return key, nil
	case <-k.done:
		return 0, ErrKeypadClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Press queues one key. Unknown keycodes are dropped.
func (k *Keypad) Press(ctx context.Context, b byte) error {
	key, err := keypad.ParseKey(b)
	if err != nil {
		return nil
	}
	select {
	case k.keys <- key:
		return nil
	case <-k.done:
		return ErrKeypadClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Type presses every character of s in order.
func (k *Keypad) Type(ctx context.Context, s string) error {
	for i := 0; i < len(s); i++ {
		if err := k.Press(ctx, s[i]); err != nil {
			return err
		}
	}
	return nil
}

func (k *Keypad) Close() {
	k.once.Do(func() { close(k.done) })
}

// Display keeps the two text rows and a log of every frame shown.
type Display struct {
	mu      sync.Mutex
	rows    [2][]byte
	col     int
	row     int
	history []string
}

func NewDisplay() *Display { return &Display{} }

func (d *Display) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = [2][]byte{}
	d.col, d.row = 0, 0
	return nil
}

func (d *Display) Goto(col, row int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.col = max(col, 0)
	d.row = min(max(row, 0), 1)
	return nil
}

func (d *Display) Write(s string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	line := d.rows[d.row]
	for len(line) < d.col+len(s) {
		line = append(line, ' ')
	}
	copy(line[d.col:], s)
	d.rows[d.row] = line
	d.col += len(s)
	d.history = append(d.history, d.frameLocked())
	return nil
}

// Lines returns the current top and bottom rows.
func (d *Display) Lines() (string, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.rows[0]), string(d.rows[1])
}

// History returns every frame after each Write, rows joined by "|".
func (d *Display) History() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.history))
	copy(out, d.history)
	return out
}

func (d *Display) frameLocked() string {
	return strings.TrimRight(string(d.rows[0]), " ") + "|" + strings.TrimRight(string(d.rows[1]), " ")
}

// Pin is both an input and an output.
type Pin struct {
	level   atomic.Bool
	toggles atomic.Int64
}

func (p *Pin) Read() bool { return p.level.Load() }

func (p *Pin) Set(on bool) error {
	p.level.Store(on)
	return nil
}

func (p *Pin) Toggle() error {
	for {
		old := p.level.Load()
		if p.level.CompareAndSwap(old, !old) {
			p.toggles.Add(1)
			return nil
		}
	}
}

func (p *Pin) Level() bool { return p.level.Load() }

// Toggles counts Toggle calls.
func (p *Pin) Toggles() int64 { return p.toggles.Load() }

// Tone records the buzzer state.
type Tone struct {
	mu    sync.Mutex
	hz    float64
	on    bool
	plays int
}

func (t *Tone) Play(hz float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hz, t.on = hz, true
	t.plays++
	return nil
}

func (t *Tone) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.on = false
	return nil
}

// Playing reports the current frequency and whether the tone is on.
func (t *Tone) Playing() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hz, t.on
}

func (t *Tone) Plays() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plays
}
