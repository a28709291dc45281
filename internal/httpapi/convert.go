package httpapi

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// ── Status ───────────────────────────────────────────────────────────────────

func statusToProto(r StatusResponse) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"role":        r.Role,
		"state":       r.State,
		"ticks":       float64(r.Ticks),
		"alarm":       r.Alarm,
		"link_ok":     r.LinkOK,
		"last_event":  r.LastEvent,
		"handled":     float64(r.Handled),
		"server_time": r.ServerTime,
	})
}

// ── Events ───────────────────────────────────────────────────────────────────

func eventsToProto(r EventsResponse) (*structpb.Struct, error) {
	list := make([]any, 0, len(r.Events))
	for _, e := range r.Events {
		list = append(list, map[string]any{
			"node":      e.Node,
			"tag":       e.Tag,
			"payload":   e.Payload,
			"state":     e.State,
			"delivered": e.Delivered,
			"reason":    e.Reason,
			"at":        e.At,
		})
	}
	return structpb.NewStruct(map[string]any{"events": list})
}
