package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	HeadStateIdle HeadState = iota
	HeadStateInitializing
	HeadStateOpen
	HeadStateClosed
	HeadStateFanoutPossible
	HeadStateFinal
)

// HeadState is the lifecycle state of a negotiation channel (a Hydra
// head). Transitions are driven exclusively by received events, never
// set directly by callers.
type HeadState int

func (s HeadState) String() string {
	switch s {
	case HeadStateIdle:
		return "Idle"
	case HeadStateInitializing:
		return "Initializing"
	case HeadStateOpen:
		return "Open"
	case HeadStateClosed:
		return "Closed"
	case HeadStateFanoutPossible:
		return "FanoutPossible"
	case HeadStateFinal:
		return "Final"
	default:
		return "Undefined"
	}
}

// UTxORef is an opaque reference to an on-chain output, used only as a
// commit argument. Its internal structure is not interpreted here.
type UTxORef struct {
	TxHash  string
	TxIndex uint32
	Value   json.RawMessage
}

func (u UTxORef) String() string {
	return fmt.Sprintf("%s#%d", u.TxHash, u.TxIndex)
}

type UTxOSet map[string]json.RawMessage

type ConnectResult struct {
	Connected  bool
	DirectMode bool
}

type HeadStatus struct {
	Connected  bool
	DirectMode bool
	State      HeadState
	HeadID     string
}

type EventHandler func(event HeadEvent)

// HeadClient speaks the channel command/event protocol with a single
// node. Commands are asynchronous: a nil return means the command was
// accepted, the effect surfaces later through events. Handlers
// registered with On run inline with event dispatch, in arrival order,
// and must not block indefinitely.
type HeadClient interface {
	Connect(ctx context.Context) (ConnectResult, error)
	Disconnect(ctx context.Context) error

	Init(ctx context.Context, contestationPeriod time.Duration) error
	Commit(ctx context.Context, utxos []UTxORef) error
	SubmitTx(ctx context.Context, payload []byte) error
	Close(ctx context.Context) error
	Fanout(ctx context.Context) error
	RefreshUTxO(ctx context.Context) error

	UTxOSnapshot() UTxOSet
	HeadID() string
	State() HeadState
	Status() HeadStatus

	On(tag string, handler EventHandler)
	WaitForState(ctx context.Context, target HeadState) error
}
