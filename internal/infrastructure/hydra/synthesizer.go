package hydra

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lendora/lendora/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// synthesizer produces the event sequence a real node would emit, used
// when the transport runs in direct mode. Events are dispatched by a
// single worker goroutine so their order is a deterministic function of
// the command sequence.
type synthesizer struct {
	dispatch     func(ports.HeadEvent)
	delay        time.Duration
	contestation time.Duration

	mtx    sync.Mutex
	headID string
	utxo   ports.UTxOSet

	queue    chan ports.HeadEvent
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSynthesizer(
	dispatch func(ports.HeadEvent), delay, contestation time.Duration,
) *synthesizer {
	s := &synthesizer{
		dispatch:     dispatch,
		delay:        delay,
		contestation: contestation,
		utxo:         make(ports.UTxOSet),
		queue:        make(chan ports.HeadEvent, 64),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *synthesizer) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case event := <-s.queue:
			select {
			case <-time.After(s.delay):
			case <-s.quit:
				return
			}
			s.dispatch(event)
		}
	}
}

// stop drops any queued events and waits for the worker, guaranteeing
// no dispatch happens after it returns.
func (s *synthesizer) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.done
}

func (s *synthesizer) handle(cmd command) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	switch c := cmd.(type) {
	case initCommand:
		s.headID = "head_" + uuid.New().String()
		s.utxo = make(ports.UTxOSet)
		s.enqueue(ports.HeadIsInitializingEvent{
			HeadID: s.headID,
			Parties: []ports.Party{
				{VKey: "direct_borrower_vkey"},
				{VKey: "direct_lender_vkey"},
			},
		})
		s.enqueue(ports.HeadIsOpenEvent{HeadID: s.headID})
	case commitCommand:
		for ref, value := range c.UTxO {
			s.utxo[ref] = value
		}
		s.enqueue(ports.CommittedEvent{
			Party: ports.Party{VKey: "direct_party_vkey"},
			UTxO:  s.snapshotLocked(),
		})
	case newTxCommand:
		s.enqueue(ports.TxValidEvent{
			HeadID:      s.headID,
			Transaction: mustMarshal(c.Transaction),
		})
	case tagOnlyCommand:
		switch c.Tag {
		case commandClose:
			s.enqueue(ports.HeadIsClosedEvent{
				HeadID:               s.headID,
				SnapshotNumber:       1,
				ContestationDeadline: time.Now().Add(s.contestation).Unix(),
			})
			s.enqueue(ports.ReadyToFanoutEvent{HeadID: s.headID})
		case commandFanout:
			s.enqueue(ports.HeadIsFinalizedEvent{HeadID: s.headID, UTxO: s.snapshotLocked()})
		case commandGetUTxO:
			s.enqueue(ports.GetUTxOResponseEvent{HeadID: s.headID, UTxO: s.snapshotLocked()})
		}
	}
}

func (s *synthesizer) enqueue(event ports.HeadEvent) {
	select {
	case s.queue <- event:
	case <-s.quit:
	default:
		log.WithField("tag", event.Tag()).Warn("direct mode event queue full, dropping event")
	}
}

func (s *synthesizer) snapshotLocked() ports.UTxOSet {
	copied := make(ports.UTxOSet, len(s.utxo))
	for k, v := range s.utxo {
		copied[k] = v
	}
	return copied
}

func mustMarshal(v interface{}) json.RawMessage {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return buf
}
