// Package commands tracks server-side asynchronous commands (created by
// EXAScaler mutations) through the state-machine API until they reach a
// terminal state.
package commands

// Summary is the reported status of a server-side command.
type Summary struct {
	Name          string  `json:"name"`
	State         string  `json:"state"`
	FailureReason *string `json:"failureReason"`
}

// Terminal reports whether the command has finished, successfully or not.
// The terminal set is an exact, case-sensitive match against the states the
// appliance state machine reports.
func (s Summary) Terminal() bool {
	switch s.State {
	case "failed", "canceled", "skipped", "completed":
		return true
	}
	return false
}
