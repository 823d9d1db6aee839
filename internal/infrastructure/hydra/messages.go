package hydra

import (
	"encoding/json"
	"fmt"

	"github.com/lendora/lendora/internal/core/ports"
)

const (
	commandInit    = "Init"
	commandCommit  = "Commit"
	commandNewTx   = "NewTx"
	commandClose   = "Close"
	commandFanout  = "Fanout"
	commandGetUTxO = "GetUTxO"

	cardanoEraTag = "Tx ConwayEra"
)

type command interface {
	tag() string
}

type initCommand struct {
	Tag                string `json:"tag"`
	ContestationPeriod int64  `json:"contestationPeriod"`
}

func (c initCommand) tag() string { return commandInit }

type commitCommand struct {
	Tag  string                     `json:"tag"`
	UTxO map[string]json.RawMessage `json:"utxo"`
}

func (c commitCommand) tag() string { return commandCommit }

type txEnvelope struct {
	Type    string `json:"type"`
	CborHex string `json:"cborHex"`
}

type newTxCommand struct {
	Tag         string     `json:"tag"`
	Transaction txEnvelope `json:"transaction"`
}

func (c newTxCommand) tag() string { return commandNewTx }

type tagOnlyCommand struct {
	Tag string `json:"tag"`
}

func (c tagOnlyCommand) tag() string { return c.Tag }

// frame is the superset of fields the node sends. Individual events
// pick what they need based on the tag.
type frame struct {
	Tag                  string          `json:"tag"`
	HeadID               string          `json:"headId"`
	Parties              []ports.Party   `json:"parties"`
	Party                ports.Party     `json:"party"`
	UTxO                 ports.UTxOSet   `json:"utxo"`
	SnapshotNumber       uint64          `json:"snapshotNumber"`
	ContestationDeadline int64           `json:"contestationDeadline"`
	Transaction          json.RawMessage `json:"transaction"`
}

func decodeFrame(payload []byte) (ports.HeadEvent, error) {
	var f frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("malformed frame: %s", err)
	}
	if len(f.Tag) <= 0 {
		return nil, fmt.Errorf("malformed frame: missing tag")
	}

	switch f.Tag {
	case ports.EventHeadIsInitializing:
		return ports.HeadIsInitializingEvent{HeadID: f.HeadID, Parties: f.Parties}, nil
	case ports.EventCommitted:
		return ports.CommittedEvent{Party: f.Party, UTxO: f.UTxO}, nil
	case ports.EventHeadIsOpen:
		return ports.HeadIsOpenEvent{HeadID: f.HeadID, UTxO: f.UTxO}, nil
	case ports.EventTxValid:
		return ports.TxValidEvent{HeadID: f.HeadID, Transaction: f.Transaction}, nil
	case ports.EventHeadIsClosed:
		return ports.HeadIsClosedEvent{
			HeadID:               f.HeadID,
			SnapshotNumber:       f.SnapshotNumber,
			ContestationDeadline: f.ContestationDeadline,
		}, nil
	case ports.EventReadyToFanout:
		return ports.ReadyToFanoutEvent{HeadID: f.HeadID}, nil
	case ports.EventHeadIsFinalized:
		return ports.HeadIsFinalizedEvent{HeadID: f.HeadID, UTxO: f.UTxO}, nil
	case ports.EventGetUTxOResponse:
		return ports.GetUTxOResponseEvent{HeadID: f.HeadID, UTxO: f.UTxO}, nil
	default:
		return ports.UnknownEvent{RawTag: f.Tag, Raw: append([]byte{}, payload...)}, nil
	}
}
