// Package keypad turns keypad presses into disarm code attempts.
package keypad

import "errors"

// CodeLength is the number of digits in a disarm code.
const CodeLength = 4

// Key is one keycode reported by the keypad driver.
type Key byte

const (
	KeyAccept Key = 'A'
	KeyB      Key = 'B'
	KeyC      Key = 'C'
	KeyDelete Key = 'D'
	KeyHash   Key = '#'
	KeyStar   Key = '*'
)

var ErrInvalidKey = errors.New("unrecognised keycode")

func (k Key) IsDigit() bool { return k >= '0' && k <= '9' }

// ParseKey accepts the sixteen keycodes of a 4x4 keypad.
func ParseKey(b byte) (Key, error) {
	k := Key(b)
	switch {
	case k.IsDigit():
		return k, nil
	case k == KeyAccept, k == KeyB, k == KeyC, k == KeyDelete, k == KeyHash, k == KeyStar:
		return k, nil
	}
	return 0, ErrInvalidKey
}

// CodeBuffer holds the most recent digits typed, up to its capacity.
// Typing past capacity drops the oldest digit.
type CodeBuffer struct {
	digits []byte
}

func NewCodeBuffer(capacity int) *CodeBuffer {
	if capacity <= 0 {
		capacity = CodeLength
	}
	return &CodeBuffer{digits: make([]byte, 0, capacity)}
}

func (b *CodeBuffer) PushDigit(d byte) {
	if len(b.digits) < cap(b.digits) {
		b.digits = append(b.digits, d)
		return
	}
	copy(b.digits, b.digits[1:])
	b.digits[len(b.digits)-1] = d
}

// DeleteLast drops the most recent digit, if any.
func (b *CodeBuffer) DeleteLast() {
	if len(b.digits) > 0 {
		b.digits = b.digits[:len(b.digits)-1]
	}
}

// AcceptReady reports whether the buffer is full.
func (b *CodeBuffer) AcceptReady() bool { return len(b.digits) == cap(b.digits) }

func (b *CodeBuffer) Len() int { return len(b.digits) }

func (b *CodeBuffer) Cap() int { return cap(b.digits) }

func (b *CodeBuffer) Clear() { b.digits = b.digits[:0] }

func (b *CodeBuffer) String() string { return string(b.digits) }

// Terminated returns a copy of the digits followed by a null byte.
func (b *CodeBuffer) Terminated() []byte {
	out := make([]byte, len(b.digits), len(b.digits)+1)
	copy(out, b.digits)
	return append(out, 0)
}
