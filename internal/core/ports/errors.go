package ports

import "fmt"

// ConnectionError means the transport could not be established and the
// connection mode forbids direct-mode fallback.
type ConnectionError struct {
	URL      string
	Attempts int
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to node at %s after %d attempt(s)", e.URL, e.Attempts)
}

// NotConnectedError means a command was attempted with no transport and
// no direct-mode fallback active. The command did not mutate any state.
type NotConnectedError struct {
	Op string
}

func (e NotConnectedError) Error() string {
	return fmt.Sprintf("cannot send %s: not connected to node", e.Op)
}

// InvalidStateError means a command was attempted in a head state that
// forbids it. Retrying without a state change will fail again.
type InvalidStateError struct {
	Op    string
	State HeadState
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot send %s in state %s", e.Op, e.State)
}

// TransitionTimeoutError means a bounded wait for an expected state
// transition expired.
type TransitionTimeoutError struct {
	Target HeadState
	State  HeadState
	HeadID string
}

func (e TransitionTimeoutError) Error() string {
	return fmt.Sprintf(
		"timed out waiting for state %s (current %s, head %s)", e.Target, e.State, e.HeadID,
	)
}
