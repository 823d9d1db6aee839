package application

import "fmt"

// SessionNotFoundError means the referenced session id is unknown or
// was already settled and removed from the live table.
type SessionNotFoundError struct {
	ID string
}

func (e SessionNotFoundError) Error() string {
	return fmt.Sprintf("no active negotiation with session id %s", e.ID)
}

// ChannelOpenTimeoutError means the channel did not reach the Open
// state within the bounded wait. Callers may retry opening.
type ChannelOpenTimeoutError struct {
	HeadID string
	Err    error
}

func (e ChannelOpenTimeoutError) Error() string {
	return fmt.Sprintf("timed out opening negotiation channel %s: %s", e.HeadID, e.Err)
}

func (e ChannelOpenTimeoutError) Unwrap() error {
	return e.Err
}
