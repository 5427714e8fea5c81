package session

// State is the operator's position in the login flow.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Next returns the state after event. Events the current state does not
// accept leave it unchanged.
func (s State) Next(ev Event) State {
	switch {
	case s == Unauthenticated && ev == EventSubmit:
		return Authenticating
	case s == Authenticating && ev == EventLoginOK:
		return Authenticated
	case s == Authenticating && ev == EventLoginFailed:
		return Unauthenticated
	case s == Authenticated && (ev == EventLogout || ev == EventUnauthorized):
		return Unauthenticated
	}
	return s
}

// Event drives State transitions.
type Event int

const (
	EventSubmit Event = iota
	EventLoginOK
	EventLoginFailed
	EventLogout
	EventUnauthorized
)
