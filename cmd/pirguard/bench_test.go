package main

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/hal/sim"
	"github.com/pirguard/pirguard/internal/pirguard/keypad"
	"github.com/pirguard/pirguard/internal/pirguard/types"
)

func TestFrameBench_ParsesTagAndPayload(t *testing.T) {
	var sent []types.BusMessage
	send := func(m types.BusMessage) error {
		sent = append(sent, m)
		return nil
	}
	var logs bytes.Buffer
	in := strings.NewReader("m\n\nc0423\nx123\nT\n")

	runFrameBench(context.Background(), in, send, log.New(&logs, "", 0))

	want := []types.BusMessage{
		{Tag: types.TagMovement},
		{Tag: types.TagCorrectCode, Payload: "0423"},
		{Tag: types.TagTimesUp},
	}
	if len(sent) != len(want) {
		t.Fatalf("sent %d messages, want %d: %+v", len(sent), len(want), sent)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Fatalf("message %d = %+v, want %+v", i, sent[i], want[i])
		}
	}
	if !strings.Contains(logs.String(), "unknown tag") {
		t.Fatalf("expected unknown tag to be logged, got %q", logs.String())
	}
}

func TestKeypadBench_TypesAndPulses(t *testing.T) {
	motion := &sim.Pin{}
	b := &board{simMotion: motion}
	kp := sim.NewKeypad(16)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		runKeypadBench(ctx, strings.NewReader("motion\n12a\n"), kp, b, log.New(&bytes.Buffer{}, "", 0))
		close(done)
	}()

	for _, want := range []keypad.Key{'1', '2', keypad.KeyAccept} {
		got, err := kp.NextKey(ctx)
		if err != nil {
			t.Fatalf("next key: %v", err)
		}
		if got != want {
			t.Fatalf("key = %q, want %q", got, want)
		}
	}
	<-done
	if motion.Level() {
		t.Fatalf("motion input left high after pulse")
	}
	if motion.Toggles() != 0 {
		t.Fatalf("pulse should use Set, not Toggle")
	}
}

func TestPad(t *testing.T) {
	if got := pad("Armed"); len(got) != 16 || !strings.HasPrefix(got, "Armed") {
		t.Fatalf("pad = %q", got)
	}
	if got := pad(strings.Repeat("x", 20)); len(got) != 16 {
		t.Fatalf("pad long = %q", got)
	}
}
