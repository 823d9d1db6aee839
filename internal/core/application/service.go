package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/lendora/lendora/internal/core/domain"
	"github.com/lendora/lendora/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// HeadClientFactory builds a channel client per negotiation session.
// Every session runs on its own channel, so concurrently-open sessions
// never share head lifecycle state.
type HeadClientFactory func() (ports.HeadClient, error)

type Status struct {
	Connected      bool
	DirectMode     bool
	HeadState      ports.HeadState
	ActiveSessions int
}

type sessionEntry struct {
	mtx      sync.Mutex
	client   ports.HeadClient
	session  *domain.NegotiationSession
	openedAt time.Time
}

// NegotiationService turns the generic channel protocol into
// loan-specific session semantics: open a channel per negotiation,
// record counter-offer rounds as off-chain transactions, and close the
// channel into a settlement record.
type NegotiationService struct {
	newClient HeadClientFactory

	mtx      sync.RWMutex
	sessions map[string]*sessionEntry
	spare    ports.HeadClient
}

func NewNegotiationService(factory HeadClientFactory) *NegotiationService {
	return &NegotiationService{
		newClient: factory,
		sessions:  make(map[string]*sessionEntry),
	}
}

// Start connects a standby client so the first negotiation opens
// without paying the connection retry loop, and so Status has a
// transport to report before any session exists.
func (s *NegotiationService) Start(ctx context.Context) error {
	client, err := s.connectClient(ctx)
	if err != nil {
		return err
	}

	s.mtx.Lock()
	s.spare = client
	s.mtx.Unlock()

	if client.Status().DirectMode {
		log.Warn("no node reachable, negotiations will run in direct mode")
	}
	return nil
}

func (s *NegotiationService) Stop(ctx context.Context) error {
	s.mtx.Lock()
	spare := s.spare
	s.spare = nil
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	s.mtx.Unlock()

	var lastErr error
	if spare != nil {
		if err := spare.Disconnect(ctx); err != nil {
			lastErr = err
		}
	}
	for _, entry := range entries {
		if err := entry.client.Disconnect(ctx); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (s *NegotiationService) OpenNegotiation(
	ctx context.Context,
	borrower, lender string, principal, rate float64, termMonths int,
) (domain.NegotiationSession, error) {
	if err := domain.ValidateLoanTerms(principal, rate, termMonths); err != nil {
		return domain.NegotiationSession{}, err
	}
	if len(borrower) <= 0 || len(lender) <= 0 {
		return domain.NegotiationSession{}, errors.New("missing borrower or lender identifier")
	}

	client, err := s.acquireClient(ctx)
	if err != nil {
		return domain.NegotiationSession{}, err
	}

	session, err := s.openChannel(ctx, client, borrower, lender, principal, rate, termMonths)
	if err != nil {
		// The channel never reached a usable state, release its client.
		if derr := client.Disconnect(context.Background()); derr != nil {
			log.WithError(derr).Warn("error releasing channel client")
		}
		return domain.NegotiationSession{}, err
	}

	s.mtx.Lock()
	s.sessions[session.Id] = &sessionEntry{
		client:   client,
		session:  session,
		openedAt: time.Now(),
	}
	s.mtx.Unlock()

	log.WithField("session", session.Id).Infof(
		"opened negotiation: %s <-> %s, principal %.2f, rate %.2f%%, term %d months",
		borrower, lender, principal, rate, termMonths,
	)
	return session.Snapshot(), nil
}

func (s *NegotiationService) openChannel(
	ctx context.Context, client ports.HeadClient,
	borrower, lender string, principal, rate float64, termMonths int,
) (*domain.NegotiationSession, error) {
	if err := client.Init(ctx, 0); err != nil {
		return nil, err
	}
	if err := client.WaitForState(ctx, ports.HeadStateInitializing); err != nil {
		// The head may have raced straight through to Open before the
		// wait was registered.
		if client.State() != ports.HeadStateOpen {
			return nil, wrapOpenTimeout(client.HeadID(), err)
		}
	}
	if client.State() != ports.HeadStateOpen {
		// No collateral is committed in this flow.
		if err := client.Commit(ctx, nil); err != nil {
			return nil, err
		}
		if err := client.WaitForState(ctx, ports.HeadStateOpen); err != nil {
			return nil, wrapOpenTimeout(client.HeadID(), err)
		}
	}

	return domain.NewNegotiationSession(
		client.HeadID(), borrower, lender, principal, rate, termMonths,
	)
}

type offerPayload struct {
	Type         string  `json:"type"`
	HeadID       string  `json:"headId"`
	Round        int     `json:"round"`
	From         string  `json:"from"`
	ProposedRate float64 `json:"proposedRate"`
	Timestamp    string  `json:"timestamp"`
}

// SubmitCounterOffer records one negotiation round. It is synchronous
// and zero-fee: the off-chain transaction is submitted and the session
// updated before the call returns. A proposal equal to the current
// rate still counts as a round.
func (s *NegotiationService) SubmitCounterOffer(
	ctx context.Context, sessionID string, proposedRate float64, fromParty string,
) (domain.RoundResult, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return domain.RoundResult{}, err
	}

	entry.mtx.Lock()
	defer entry.mtx.Unlock()

	if entry.session.Status != domain.SessionOpen {
		return domain.RoundResult{}, SessionNotFoundError{ID: sessionID}
	}

	payload, err := json.Marshal(offerPayload{
		Type:         "LoanNegotiation",
		HeadID:       sessionID,
		Round:        entry.session.RoundCount() + 1,
		From:         fromParty,
		ProposedRate: proposedRate,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return domain.RoundResult{}, err
	}

	if err := entry.client.SubmitTx(ctx, payload); err != nil {
		return domain.RoundResult{}, err
	}

	result, err := entry.session.ApplyCounterOffer(fromParty, proposedRate)
	if err != nil {
		return domain.RoundResult{}, err
	}

	log.WithField("session", sessionID).Infof(
		"negotiation round %d: %.2f%% -> %.2f%%", result.Round, result.OldRate, result.NewRate,
	)
	return result, nil
}

// AcceptAndSettle closes the channel, fans out and returns the
// settlement record built from the session's final state. The session
// is removed from the live table only once the channel reaches Final,
// so a partial failure (say, a fanout timeout) can be retried by
// calling this again with the same session id.
func (s *NegotiationService) AcceptAndSettle(
	ctx context.Context, sessionID string,
) (domain.Settlement, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return domain.Settlement{}, err
	}

	entry.mtx.Lock()
	defer entry.mtx.Unlock()

	// Another caller may have settled while we waited for the lock.
	if _, err := s.entry(sessionID); err != nil {
		return domain.Settlement{}, err
	}

	if entry.session.Status == domain.SessionOpen {
		if err := entry.session.Accept(); err != nil {
			return domain.Settlement{}, err
		}
		log.WithField("session", sessionID).Infof(
			"accepting terms at %.2f%% after %d round(s)",
			entry.session.CurrentRate, entry.session.RoundCount(),
		)
	}

	if entry.client.State() == ports.HeadStateOpen {
		if err := entry.client.Close(ctx); err != nil {
			return domain.Settlement{}, err
		}
		// ReadyToFanout follows HeadIsClosed immediately, waiting for
		// the later state avoids racing past the intermediate one.
		if err := entry.client.WaitForState(ctx, ports.HeadStateFanoutPossible); err != nil {
			return domain.Settlement{}, err
		}
	}

	if state := entry.client.State(); state == ports.HeadStateClosed ||
		state == ports.HeadStateFanoutPossible {
		if err := entry.client.Fanout(ctx); err != nil {
			return domain.Settlement{}, err
		}
		if err := entry.client.WaitForState(ctx, ports.HeadStateFinal); err != nil {
			return domain.Settlement{}, err
		}
	}

	if state := entry.client.State(); state != ports.HeadStateFinal {
		return domain.Settlement{}, ports.TransitionTimeoutError{
			Target: ports.HeadStateFinal, State: state, HeadID: sessionID,
		}
	}

	if err := entry.session.MarkSettled(); err != nil {
		return domain.Settlement{}, err
	}
	settlement := domain.NewSettlement(entry.session)

	s.mtx.Lock()
	delete(s.sessions, sessionID)
	s.mtx.Unlock()

	if err := entry.client.Disconnect(ctx); err != nil {
		log.WithError(err).WithField("session", sessionID).Warn("error releasing channel client")
	}

	log.WithField("session", sessionID).Infof(
		"settlement complete: %s, final rate %.2f%% (%d bps)",
		settlement.Id, settlement.FinalRate, settlement.FinalRateBps,
	)
	return settlement, nil
}

// Session returns a read-only snapshot, including the round history.
func (s *NegotiationService) Session(sessionID string) (domain.NegotiationSession, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return domain.NegotiationSession{}, err
	}

	entry.mtx.Lock()
	defer entry.mtx.Unlock()
	return entry.session.Snapshot(), nil
}

func (s *NegotiationService) Status() Status {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var latest *sessionEntry
	for _, entry := range s.sessions {
		if latest == nil || entry.openedAt.After(latest.openedAt) {
			latest = entry
		}
	}

	var head ports.HeadStatus
	switch {
	case latest != nil:
		head = latest.client.Status()
	case s.spare != nil:
		head = s.spare.Status()
	}

	return Status{
		Connected:      head.Connected,
		DirectMode:     head.DirectMode,
		HeadState:      head.State,
		ActiveSessions: len(s.sessions),
	}
}

func (s *NegotiationService) entry(sessionID string) (*sessionEntry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, SessionNotFoundError{ID: sessionID}
	}
	return entry, nil
}

func (s *NegotiationService) acquireClient(ctx context.Context) (ports.HeadClient, error) {
	s.mtx.Lock()
	spare := s.spare
	s.spare = nil
	s.mtx.Unlock()

	if spare != nil {
		return spare, nil
	}
	return s.connectClient(ctx)
}

func (s *NegotiationService) connectClient(ctx context.Context) (ports.HeadClient, error) {
	client, err := s.newClient()
	if err != nil {
		return nil, err
	}
	if _, err := client.Connect(ctx); err != nil {
		return nil, err
	}

	client.On(ports.EventHeadIsOpen, func(event ports.HeadEvent) {
		if e, ok := event.(ports.HeadIsOpenEvent); ok {
			log.WithField("head", e.HeadID).Debug("channel open")
		}
	})
	client.On(ports.EventHeadIsClosed, func(event ports.HeadEvent) {
		if e, ok := event.(ports.HeadIsClosedEvent); ok {
			log.WithField("head", e.HeadID).Debugf(
				"channel closed, contestation deadline %d", e.ContestationDeadline,
			)
		}
	})

	return client, nil
}

func wrapOpenTimeout(headID string, err error) error {
	var timeout ports.TransitionTimeoutError
	if errors.As(err, &timeout) {
		return ChannelOpenTimeoutError{HeadID: headID, Err: err}
	}
	return err
}
