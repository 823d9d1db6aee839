package ports

import "encoding/json"

const (
	EventHeadIsInitializing = "HeadIsInitializing"
	EventCommitted          = "Committed"
	EventHeadIsOpen         = "HeadIsOpen"
	EventTxValid            = "TxValid"
	EventHeadIsClosed       = "HeadIsClosed"
	EventReadyToFanout      = "ReadyToFanout"
	EventHeadIsFinalized    = "HeadIsFinalized"
	EventGetUTxOResponse    = "GetUTxOResponse"
	EventUnknown            = "Unknown"
)

// HeadEvent is an inbound (or synthesized) protocol event.
type HeadEvent interface {
	Tag() string
}

type Party struct {
	VKey string `json:"vkey"`
}

type HeadIsInitializingEvent struct {
	HeadID  string
	Parties []Party
}

func (e HeadIsInitializingEvent) Tag() string { return EventHeadIsInitializing }

type CommittedEvent struct {
	Party Party
	UTxO  UTxOSet
}

func (e CommittedEvent) Tag() string { return EventCommitted }

type HeadIsOpenEvent struct {
	HeadID string
	UTxO   UTxOSet
}

func (e HeadIsOpenEvent) Tag() string { return EventHeadIsOpen }

type TxValidEvent struct {
	HeadID      string
	Transaction json.RawMessage
}

func (e TxValidEvent) Tag() string { return EventTxValid }

type HeadIsClosedEvent struct {
	HeadID               string
	SnapshotNumber       uint64
	ContestationDeadline int64
}

func (e HeadIsClosedEvent) Tag() string { return EventHeadIsClosed }

type ReadyToFanoutEvent struct {
	HeadID string
}

func (e ReadyToFanoutEvent) Tag() string { return EventReadyToFanout }

type HeadIsFinalizedEvent struct {
	HeadID string
	UTxO   UTxOSet
}

func (e HeadIsFinalizedEvent) Tag() string { return EventHeadIsFinalized }

type GetUTxOResponseEvent struct {
	HeadID string
	UTxO   UTxOSet
}

func (e GetUTxOResponseEvent) Tag() string { return EventGetUTxOResponse }

// UnknownEvent carries any frame whose tag is not recognized. It is
// dispatched to subscribers and otherwise ignored.
type UnknownEvent struct {
	RawTag string
	Raw    json.RawMessage
}

func (e UnknownEvent) Tag() string { return EventUnknown }
