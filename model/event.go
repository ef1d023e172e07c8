package model

// EventKind identifies what happened between two hosts at a simulated instant.
type EventKind int

const (
	EventUnknown EventKind = iota
	// ConnectUp and ConnectDown are connectivity transitions between a
	// mobile host and an access point (or between two mobile hosts).
	EventConnectUp
	EventConnectDown
	// Message events exist to satisfy the common listener contract shared
	// with message-level reporting. Connectivity aggregators accept them
	// without touching any counter.
	EventMessageCreated
	EventMessageRelayed
	EventMessageDelivered
	EventMessageDeliveredAgain
	EventMessageAborted
)

// String returns the short event tag used in log output.
func (k EventKind) String() string {
	switch k {
	case EventConnectUp:
		return "up"
	case EventConnectDown:
		return "down"
	case EventMessageCreated:
		return "create"
	case EventMessageRelayed:
		return "relayed"
	case EventMessageDelivered:
		return "delivered"
	case EventMessageDeliveredAgain:
		return "delivered_again"
	case EventMessageAborted:
		return "abort"
	default:
		return "unknown"
	}
}

// Event is one element of the connectivity/message stream delivered to
// aggregators. The external scheduler delivers events in non-decreasing
// Timestamp order; events sharing a timestamp form one atomic batch.
type Event struct {
	Kind      EventKind
	Timestamp float64 // simulated seconds
	HostA     string
	HostB     string // empty for single-host events
	Extra     string // free-form tag, e.g. a message ID
}
