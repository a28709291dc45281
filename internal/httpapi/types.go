package httpapi

import (
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/service"
	"github.com/pirguard/pirguard/internal/pirguard/store"
)

type StatusResponse struct {
	Role       string `json:"role"`
	State      string `json:"state"`
	Ticks      uint32 `json:"ticks"`
	Alarm      bool   `json:"alarm"`
	LinkOK     bool   `json:"link_ok"`
	LastEvent  string `json:"last_event,omitempty"`
	Handled    int    `json:"handled,omitempty"`
	ServerTime string `json:"server_time"`
}

type EventView struct {
	Node      string `json:"node"`
	Tag       string `json:"tag"`
	Payload   string `json:"payload,omitempty"`
	State     string `json:"state,omitempty"`
	Delivered bool   `json:"delivered"`
	Reason    string `json:"reason,omitempty"`
	At        string `json:"at"`
}

type EventsResponse struct {
	Events []EventView `json:"events"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusResponse(st service.Status, now time.Time) StatusResponse {
	return StatusResponse{
		Role:       st.Role,
		State:      st.State,
		Ticks:      st.Ticks,
		Alarm:      st.Alarm,
		LinkOK:     st.LinkOK,
		LastEvent:  st.LastEvent,
		Handled:    st.Handled,
		ServerTime: now.Format(time.RFC3339Nano),
	}
}

func eventsResponse(recs []store.SecurityEventRecord) EventsResponse {
	out := EventsResponse{Events: make([]EventView, 0, len(recs))}
	for _, rec := range recs {
		v := EventView{
			Node:      rec.Node,
			Tag:       rec.Tag.String(),
			Payload:   rec.Payload,
			Delivered: rec.Delivered,
			Reason:    rec.Reason,
			At:        rec.At.UTC().Format(time.RFC3339Nano),
		}
		// only the master tracks a security state
		if rec.Node == store.NodeMaster {
			v.State = rec.State.String()
		}
		out.Events = append(out.Events, v)
	}
	return out
}
