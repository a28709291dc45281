package types

import (
	"bytes"
	"errors"
	"fmt"
)

// MaxMessageSize caps a bus message, tag byte included.
const MaxMessageSize = 16

var (
	ErrEmptyMessage = errors.New("empty bus message")
	ErrUnknownTag   = errors.New("unknown event tag")
)

// EventTag is the first byte of every bus message.
type EventTag byte

const (
	TagMovement    EventTag = 'M'
	TagCorrectCode EventTag = 'C'
	TagWrongCode   EventTag = 'W'
	TagTimesUp     EventTag = 'T'
	TagRearm       EventTag = 'R'
)

// ParseTag maps a raw wire byte onto a known tag.
func ParseTag(b byte) (EventTag, bool) {
	switch t := EventTag(b); t {
	case TagMovement, TagCorrectCode, TagWrongCode, TagTimesUp, TagRearm:
		return t, true
	}
	return 0, false
}

func (t EventTag) String() string {
	switch t {
	case TagMovement:
		return "movement"
	case TagCorrectCode:
		return "correct_code"
	case TagWrongCode:
		return "wrong_code"
	case TagTimesUp:
		return "times_up"
	case TagRearm:
		return "rearm"
	default:
		return fmt.Sprintf("tag(0x%02X)", byte(t))
	}
}

// CarriesCode reports whether the payload of this event is a keypad code.
func (t EventTag) CarriesCode() bool {
	return t == TagCorrectCode || t == TagWrongCode
}

// BusMessage is one status event sent from master to slave.
type BusMessage struct {
	Tag     EventTag
	Payload string
}

// Encode renders the message as it travels on the wire: tag, payload and a
// null terminator, cut at MaxMessageSize. A message that fills the cap
// carries no terminator.
func (m BusMessage) Encode() []byte {
	out := make([]byte, 0, MaxMessageSize)
	out = append(out, byte(m.Tag))
	out = append(out, m.Payload...)
	if len(out) >= MaxMessageSize {
		return out[:MaxMessageSize]
	}
	return append(out, 0)
}

// DecodeMessage parses received bytes. Anything after the first null is
// ignored.
func DecodeMessage(b []byte) (BusMessage, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if len(b) == 0 {
		return BusMessage{}, ErrEmptyMessage
	}
	tag, ok := ParseTag(b[0])
	if !ok {
		return BusMessage{}, fmt.Errorf("%w: 0x%02X", ErrUnknownTag, b[0])
	}
	return BusMessage{Tag: tag, Payload: string(b[1:])}, nil
}
