package auth

import "fmt"

// LoginState is a state of the session manager's login state machine.
type LoginState string

const (
	StateAnonymous      LoginState = "anonymous"
	StateAuthenticating LoginState = "authenticating"
	StateRepairing      LoginState = "repairing"
	StateAuthenticated  LoginState = "authenticated"
	StateFailed         LoginState = "failed"
)

var transitions = map[LoginState][]LoginState{
	StateAnonymous:      {StateAuthenticating},
	StateAuthenticating: {StateAuthenticated, StateRepairing, StateFailed},
	StateRepairing:      {StateAuthenticated, StateFailed},
	StateAuthenticated:  {StateAnonymous},
	// A failed attempt leaves the caller anonymous; a new login starts over.
	StateFailed: {StateAnonymous, StateAuthenticating},
}

// CanTransition reports whether the state machine allows moving from -> to.
func CanTransition(from, to LoginState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition records one state change of a login or logout attempt.
type Transition struct {
	From  LoginState
	To    LoginState
	Email string
	// Err is the failure reason for transitions into StateFailed.
	Err error
}

// Validate returns an error when the transition is not allowed.
func (t Transition) Validate() error {
	if !CanTransition(t.From, t.To) {
		return fmt.Errorf("invalid login state transition %s -> %s", t.From, t.To)
	}
	return nil
}
