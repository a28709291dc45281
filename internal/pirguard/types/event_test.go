package types_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pirguard/pirguard/internal/pirguard/types"
)

func TestEncode_AppendsTerminator(t *testing.T) {
	got := types.BusMessage{Tag: types.TagCorrectCode, Payload: "0423"}.Encode()
	want := []byte{'C', '0', '4', '2', '3', 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEncode_TruncatesAtCap(t *testing.T) {
	got := types.BusMessage{Tag: types.TagWrongCode, Payload: strings.Repeat("9", 40)}.Encode()
	if len(got) != types.MaxMessageSize {
		t.Fatalf("expected %d bytes, got %d", types.MaxMessageSize, len(got))
	}
	if bytes.IndexByte(got, 0) != -1 {
		t.Error("capped message must not carry a terminator")
	}
}

func TestDecodeMessage_KnownTag(t *testing.T) {
	msg, err := types.DecodeMessage([]byte{'W', '1', '1', '1', '1', 0, 'x', 'y'})
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if msg.Tag != types.TagWrongCode {
		t.Errorf("expected tag W, got %v", msg.Tag)
	}
	if msg.Payload != "1111" {
		t.Errorf("expected payload 1111, got %q", msg.Payload)
	}
}

func TestDecodeMessage_Empty(t *testing.T) {
	if _, err := types.DecodeMessage([]byte{0, 'M'}); !errors.Is(err, types.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestDecodeMessage_UnknownTag(t *testing.T) {
	if _, err := types.DecodeMessage([]byte("Xhello")); !errors.Is(err, types.ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
}

func TestCarriesCode(t *testing.T) {
	if !types.TagCorrectCode.CarriesCode() || !types.TagWrongCode.CarriesCode() {
		t.Error("code result events must carry a code")
	}
	if types.TagMovement.CarriesCode() || types.TagRearm.CarriesCode() {
		t.Error("status events must not carry a code")
	}
}
