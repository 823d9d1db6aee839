package domain

import (
	"fmt"
	"time"
)

const (
	SessionOpen SessionStatus = iota
	SessionAccepted
	SessionSettled
)

type SessionStatus int

func (s SessionStatus) String() string {
	switch s {
	case SessionOpen:
		return "OPEN"
	case SessionAccepted:
		return "ACCEPTED"
	case SessionSettled:
		return "SETTLED"
	default:
		return "UNDEFINED"
	}
}

// RoundRecord is one counter-offer in a negotiation, ordered by Round.
type RoundRecord struct {
	Round     int
	Proposer  string
	Rate      float64
	Timestamp time.Time
}

type RoundResult struct {
	Round   int
	OldRate float64
	NewRate float64
}

// NegotiationSession tracks one loan negotiation bound to a channel.
// It is created by the session manager at channel open, mutated only by
// counter-offers and terminally consumed at settlement. Callers must
// serialize mutations on the same session.
type NegotiationSession struct {
	Id           string
	Borrower     string
	Lender       string
	Principal    float64
	OriginalRate float64
	CurrentRate  float64
	TermMonths   int
	Rounds       []RoundRecord
	Status       SessionStatus
	CreatedAt    time.Time
}

func ValidateLoanTerms(principal, rate float64, termMonths int) error {
	if principal <= 0 {
		return fmt.Errorf("principal must be positive, got %f", principal)
	}
	if rate < 0 || rate > 100 {
		return fmt.Errorf("interest rate must be within [0, 100], got %f", rate)
	}
	if termMonths <= 0 {
		return fmt.Errorf("term must be a positive number of months, got %d", termMonths)
	}
	return nil
}

func NewNegotiationSession(
	headID, borrower, lender string, principal, rate float64, termMonths int,
) (*NegotiationSession, error) {
	if len(headID) <= 0 {
		return nil, fmt.Errorf("missing head id")
	}
	if len(borrower) <= 0 || len(lender) <= 0 {
		return nil, fmt.Errorf("missing borrower or lender identifier")
	}
	if err := ValidateLoanTerms(principal, rate, termMonths); err != nil {
		return nil, err
	}

	return &NegotiationSession{
		Id:           headID,
		Borrower:     borrower,
		Lender:       lender,
		Principal:    principal,
		OriginalRate: rate,
		CurrentRate:  rate,
		TermMonths:   termMonths,
		Rounds:       make([]RoundRecord, 0),
		Status:       SessionOpen,
		CreatedAt:    time.Now(),
	}, nil
}

func (s *NegotiationSession) RoundCount() int {
	return len(s.Rounds)
}

// ApplyCounterOffer appends a round and unconditionally makes the
// proposed rate the current one. Proposals equal to the current rate
// still count as a round: policy layers resubmit to confirm a rate.
func (s *NegotiationSession) ApplyCounterOffer(proposer string, rate float64) (RoundResult, error) {
	if s.Status != SessionOpen {
		return RoundResult{}, fmt.Errorf(
			"session %s is %s, counter-offers are no longer accepted", s.Id, s.Status,
		)
	}
	if rate < 0 || rate > 100 {
		return RoundResult{}, fmt.Errorf("interest rate must be within [0, 100], got %f", rate)
	}
	if len(proposer) <= 0 {
		return RoundResult{}, fmt.Errorf("missing proposer identifier")
	}

	oldRate := s.CurrentRate
	round := len(s.Rounds) + 1
	s.Rounds = append(s.Rounds, RoundRecord{
		Round:     round,
		Proposer:  proposer,
		Rate:      rate,
		Timestamp: time.Now(),
	})
	s.CurrentRate = rate

	return RoundResult{Round: round, OldRate: oldRate, NewRate: rate}, nil
}

func (s *NegotiationSession) Accept() error {
	if s.Status != SessionOpen {
		return fmt.Errorf("session %s is %s, cannot accept", s.Id, s.Status)
	}
	s.Status = SessionAccepted
	return nil
}

func (s *NegotiationSession) MarkSettled() error {
	if s.Status != SessionAccepted {
		return fmt.Errorf("session %s is %s, cannot settle", s.Id, s.Status)
	}
	s.Status = SessionSettled
	return nil
}

// Snapshot returns a copy safe to read after the session has been
// removed from the live table.
func (s *NegotiationSession) Snapshot() NegotiationSession {
	copied := *s
	copied.Rounds = append([]RoundRecord{}, s.Rounds...)
	return copied
}
