package auth

import "fmt"

// State is where the console is in the session lifecycle
type State int

const (
	LoggedOut State = iota
	Authenticating
	LoggedIn
	RegisteringTenant
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case Authenticating:
		return "authenticating"
	case LoggedIn:
		return "logged_in"
	case RegisteringTenant:
		return "registering_tenant"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// LoggedOut -> LoggedIn is the auto-resume path, which skips Authenticating
var transitions = map[State][]State{
	LoggedOut:         {Authenticating, LoggedIn, RegisteringTenant},
	Authenticating:    {LoggedIn, LoggedOut},
	LoggedIn:          {LoggedOut},
	RegisteringTenant: {LoggedOut},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateObserver is told about every state change, after it happened
type StateObserver func(from, to State)

type stateChange struct {
	from, to State
}
