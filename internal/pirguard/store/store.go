package store

import (
	"context"
	"strings"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/types"
)

// Node names used in audit records.
const (
	NodeMaster = "master"
	NodeSlave  = "slave"
)

// SecurityEventRecord is one bus event as seen by a node: sent by the
// master or dispatched by the slave. Codes are never stored in clear.
type SecurityEventRecord struct {
	Node      string
	Tag       types.EventTag
	Payload   string
	State     types.SecurityState
	Delivered bool
	Reason    string // link error text, empty when delivered
	At        time.Time
}

// EventStore persists security events as an append-only audit log.
type EventStore interface {
	RecordEvent(ctx context.Context, rec SecurityEventRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]SecurityEventRecord, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaskPayload hides keypad codes before they reach the audit log.
func MaskPayload(tag types.EventTag, payload string) string {
	if !tag.CarriesCode() || payload == "" {
		return payload
	}
	return strings.Repeat("*", len(payload))
}
