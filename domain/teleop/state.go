package teleop

// ConnectionState is the lifecycle state of a BridgeClient.
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON and YAML.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
