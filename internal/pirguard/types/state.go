package types

// SecurityState is the master node's position in the disarm flow.
type SecurityState int32

const (
	StateIdle SecurityState = iota
	StateTimerArmed
	StateAwaitingCode
	StateDisarmed
)

func (s SecurityState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTimerArmed:
		return "timer_armed"
	case StateAwaitingCode:
		return "awaiting_code"
	case StateDisarmed:
		return "disarmed"
	default:
		return "unknown"
	}
}
