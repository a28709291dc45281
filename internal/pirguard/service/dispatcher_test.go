package service_test

import (
	"context"
	"testing"

	"github.com/pirguard/pirguard/internal/pirguard/hal"
	halsim "github.com/pirguard/pirguard/internal/pirguard/hal/sim"
	"github.com/pirguard/pirguard/internal/pirguard/service"
	"github.com/pirguard/pirguard/internal/pirguard/store"
	"github.com/pirguard/pirguard/internal/pirguard/store/memory"
	"github.com/pirguard/pirguard/internal/pirguard/types"
)

type slaveRig struct {
	display *halsim.Display
	tone    *halsim.Tone
	events  *memory.EventStore
	d       *service.Dispatcher
}

func newSlaveRig() *slaveRig {
	r := &slaveRig{
		display: halsim.NewDisplay(),
		tone:    &halsim.Tone{},
		events:  memory.NewEventStore(),
	}
	r.d = service.NewDispatcher(service.DispatcherDeps{
		Logger:  silentLogger(),
		Display: r.display,
		Tone:    r.tone,
		Events:  r.events,
	})
	return r
}

func TestDispatcher_Presentation(t *testing.T) {
	cases := []struct {
		msg          types.BusMessage
		top, bottom  string
		toneExpected bool
	}{
		{types.BusMessage{Tag: types.TagMovement}, "Status:", "Movement!", false},
		{types.BusMessage{Tag: types.TagWrongCode, Payload: "1111"}, "Wrong Password:", "1111", true},
		{types.BusMessage{Tag: types.TagTimesUp}, "Status:", "TIME IS UP!", true},
		{types.BusMessage{Tag: types.TagCorrectCode, Payload: "0423"}, "Correct Password", "0423", false},
		{types.BusMessage{Tag: types.TagRearm}, "Status:", "Armed", false},
	}

	r := newSlaveRig()
	for _, tc := range cases {
		if err := r.d.Dispatch(context.Background(), tc.msg); err != nil {
			t.Fatalf("Dispatch %s: %v", tc.msg.Tag, err)
		}
		top, bottom := r.display.Lines()
		if top != tc.top || bottom != tc.bottom {
			t.Errorf("%s: expected %q / %q, got %q / %q", tc.msg.Tag, tc.top, tc.bottom, top, bottom)
		}
		hz, on := r.tone.Playing()
		if on != tc.toneExpected {
			t.Errorf("%s: expected tone=%t, got %t", tc.msg.Tag, tc.toneExpected, on)
		}
		if on && hz != hal.NoteC3 {
			t.Errorf("%s: expected C3, got %v Hz", tc.msg.Tag, hz)
		}
	}
}

func TestDispatcher_MovementKeepsRunningAlarm(t *testing.T) {
	r := newSlaveRig()
	ctx := context.Background()

	_ = r.d.Dispatch(ctx, types.BusMessage{Tag: types.TagTimesUp})
	_ = r.d.Dispatch(ctx, types.BusMessage{Tag: types.TagMovement})

	if _, on := r.tone.Playing(); !on {
		t.Error("expected tone to keep playing")
	}
}

func TestDispatcher_UnknownTagIgnored(t *testing.T) {
	r := newSlaveRig()
	_ = r.d.Welcome()

	if err := r.d.Dispatch(context.Background(), types.BusMessage{Tag: 'Z'}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	top, _ := r.display.Lines()
	if top != "Welcome!" {
		t.Errorf("expected display untouched, got %q", top)
	}
	if len(r.events.Events()) != 0 {
		t.Error("expected nothing recorded")
	}
}

func TestDispatcher_RecordsMaskedEvent(t *testing.T) {
	r := newSlaveRig()
	_ = r.d.Dispatch(context.Background(), types.BusMessage{Tag: types.TagCorrectCode, Payload: "0423"})

	evs := r.events.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(evs))
	}
	if evs[0].Node != store.NodeSlave || evs[0].Payload != "****" || !evs[0].Delivered {
		t.Errorf("unexpected record %+v", evs[0])
	}
}

func TestDispatcher_Status(t *testing.T) {
	r := newSlaveRig()
	if st := r.d.Status(); st.State != "welcome" || st.Handled != 0 {
		t.Errorf("unexpected initial status %+v", st)
	}

	_ = r.d.Dispatch(context.Background(), types.BusMessage{Tag: types.TagWrongCode, Payload: "1"})
	r.d.SetLink(false)

	st := r.d.Status()
	if st.Role != "slave" || st.State != "alarm" || !st.Alarm || st.LinkOK || st.Handled != 1 {
		t.Errorf("unexpected status %+v", st)
	}
	if st.LastEvent != "wrong_code" {
		t.Errorf("expected last event wrong_code, got %q", st.LastEvent)
	}
}
