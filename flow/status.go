package flow

// Status is the lifecycle state of a tracked flow. StatusIdle is part of
// the contract but, like CloseState below, is never actually assigned:
// the reference implementation declares all four variants but only ever
// sets Active, Closed, or Expired on the flow record itself — a packet
// gap past the active/idle threshold only affects the active/idle
// duration accumulators (see Record's active/idle tracking), not this
// top-level status.
type Status int

const (
	StatusActive Status = iota
	StatusIdle
	StatusClosed
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusClosed:
		return "closed"
	case StatusExpired:
		return "expired"
	default:
		return "active"
	}
}

// CloseState is reserved for future FIN/ACK teardown tracking. The engine
// never transitions it today; every flow carries CloseStateNonClosing for
// its whole life.
type CloseState int

const (
	CloseStateNonClosing CloseState = iota
	CloseStateFinClient
	CloseStateAckFinServer
	CloseStateAckClient
)
