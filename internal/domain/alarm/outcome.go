package alarm

// Reason explains why a session ended.
type Reason uint8

// Session end reasons.
const (
	// ReasonManualAlert is a CommandAlert update.
	ReasonManualAlert Reason = iota + 1
	// ReasonManualSafe is a CommandSafe update.
	ReasonManualSafe
	// ReasonConnectionTimeout means no valid update arrived in time.
	ReasonConnectionTimeout
	// ReasonDefuseTimeout means an armed device was not disarmed in time.
	ReasonDefuseTimeout
	// ReasonPeerClosed is a close frame from the client.
	ReasonPeerClosed
	// ReasonTransportClosed is end-of-stream or an I/O failure on read.
	ReasonTransportClosed
)

func (r Reason) String() string {
	switch r {
	case ReasonManualAlert:
		return "manual_alert"
	case ReasonManualSafe:
		return "manual_safe"
	case ReasonConnectionTimeout:
		return "connection_timeout"
	case ReasonDefuseTimeout:
		return "defuse_timeout"
	case ReasonPeerClosed:
		return "peer_closed"
	case ReasonTransportClosed:
		return "transport_closed"
	default:
		return "unknown"
	}
}

// Outcome is the final result of a session.
type Outcome struct {
	// Alert is the boolean decision reported for the session.
	Alert bool
	// Reason is what ended the session.
	Reason Reason
	// LastUpdate is the last accepted update, or the sentinel.
	LastUpdate Update
	// WasArmed records whether a defuse deadline was pending at the end.
	WasArmed bool
}
