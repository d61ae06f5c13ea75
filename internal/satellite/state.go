package satellite

// State is the externally visible state of the satellite.
type State int

const (
	StateStopped State = iota
	StateDisconnected
	StateIdle
	StateListening
	StateProcessing
	StateResponding
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateDisconnected:
		return "disconnected"
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateResponding:
		return "responding"
	}
	return "unknown"
}

// MarshalText renders the state name in JSON status snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
