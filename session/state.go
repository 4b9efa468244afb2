package session

// State is the lifecycle state of a session.
type State uint8

const (
	StateCreated State = iota
	StateOpen
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateOpen:
		return "Open"
	case StateFailed:
		return "Failed"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
