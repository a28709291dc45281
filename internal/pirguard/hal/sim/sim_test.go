package sim_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/hal"
	"github.com/pirguard/pirguard/internal/pirguard/hal/sim"
	"github.com/pirguard/pirguard/internal/pirguard/keypad"
)

func TestKeypad_TypeDropsUnknownKeys(t *testing.T) {
	kp := sim.NewKeypad(8)
	ctx := context.Background()

	if err := kp.Type(ctx, "0x4A"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	var got []keypad.Key
	for range 3 {
		k, err := kp.NextKey(ctx)
		if err != nil {
			t.Fatalf("NextKey: %v", err)
		}
		got = append(got, k)
	}
	if string([]byte{byte(got[0]), byte(got[1]), byte(got[2])}) != "04A" {
		t.Errorf("expected 04A, got %v", got)
	}
}

func TestKeypad_CloseUnblocks(t *testing.T) {
	kp := sim.NewKeypad(1)
	done := make(chan error, 1)
	go func() {
		_, err := kp.NextKey(context.Background())
		done <- err
	}()
	kp.Close()
	kp.Close()

	select {
	case err := <-done:
		if !errors.Is(err, sim.ErrKeypadClosed) {
			t.Errorf("expected ErrKeypadClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("NextKey did not return after Close")
	}
}

func TestDisplay_ShowLines(t *testing.T) {
	d := sim.NewDisplay()
	if err := hal.ShowLines(d, "Status:", "Movement!"); err != nil {
		t.Fatalf("ShowLines: %v", err)
	}
	top, bottom := d.Lines()
	if top != "Status:" || bottom != "Movement!" {
		t.Errorf("unexpected rows %q / %q", top, bottom)
	}

	if err := hal.ShowLines(d, "Welcome!", ""); err != nil {
		t.Fatalf("ShowLines: %v", err)
	}
	top, bottom = d.Lines()
	if top != "Welcome!" || bottom != "" {
		t.Errorf("expected cleared bottom row, got %q / %q", top, bottom)
	}
}

func TestDisplay_WriteOverwritesInPlace(t *testing.T) {
	d := sim.NewDisplay()
	_ = d.Write("Status: idle")
	_ = d.Goto(8, 0)
	_ = d.Write("ok")

	top, _ := d.Lines()
	if top != "Status: okle" {
		t.Errorf("expected in-place overwrite, got %q", top)
	}
}

func TestPin_Toggle(t *testing.T) {
	var p sim.Pin
	_ = p.Toggle()
	_ = p.Toggle()
	_ = p.Toggle()
	if !p.Level() || p.Toggles() != 3 {
		t.Errorf("expected high after 3 toggles, got level=%v toggles=%d", p.Level(), p.Toggles())
	}
}
