package agent

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type DecisionKind int

const (
	DecisionCounter DecisionKind = iota
	DecisionAccept
	DecisionReject
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionCounter:
		return "COUNTER"
	case DecisionAccept:
		return "ACCEPT"
	case DecisionReject:
		return "REJECT"
	default:
		return "UNKNOWN"
	}
}

// SessionView is the slice of negotiation state a strategy gets to see.
type SessionView struct {
	Round       int
	Principal   float64
	TermMonths  int
	CurrentRate float64
	MaxRounds   int
}

// Decision is a strategy's move for one round. Rate is only meaningful
// for counters.
type Decision struct {
	Kind DecisionKind
	Rate float64
}

// Strategy decides the next move for one side of a negotiation.
type Strategy interface {
	Name() string
	Decide(view SessionView) Decision
}

func roundRate(rate float64) float64 {
	out, _ := decimal.NewFromFloat(rate).Round(2).Float64()
	return out
}

// borrowerStrategy pushes the rate down toward a target and accepts
// once the standing rate is close enough.
type borrowerStrategy struct {
	target float64
	margin float64
}

func NewBorrowerStrategy(target, margin float64) (Strategy, error) {
	if target < 0 {
		return nil, fmt.Errorf("target rate must not be negative, got %f", target)
	}
	if margin < 0 {
		return nil, fmt.Errorf("margin must not be negative, got %f", margin)
	}
	return &borrowerStrategy{target, margin}, nil
}

func (s *borrowerStrategy) Name() string {
	return "borrower"
}

func (s *borrowerStrategy) Decide(view SessionView) Decision {
	if view.CurrentRate <= s.target+s.margin {
		return Decision{Kind: DecisionAccept, Rate: view.CurrentRate}
	}
	if view.MaxRounds > 0 && view.Round >= view.MaxRounds {
		return Decision{Kind: DecisionReject}
	}
	counter := roundRate((view.CurrentRate + s.target) / 2)
	return Decision{Kind: DecisionCounter, Rate: counter}
}

// lenderStrategy defends a floor rate and accepts anything at or above
// it, less the configured margin.
type lenderStrategy struct {
	floor  float64
	margin float64
}

func NewLenderStrategy(floor, margin float64) (Strategy, error) {
	if floor < 0 {
		return nil, fmt.Errorf("floor rate must not be negative, got %f", floor)
	}
	if margin < 0 {
		return nil, fmt.Errorf("margin must not be negative, got %f", margin)
	}
	return &lenderStrategy{floor, margin}, nil
}

func (s *lenderStrategy) Name() string {
	return "lender"
}

func (s *lenderStrategy) Decide(view SessionView) Decision {
	if view.CurrentRate >= s.floor-s.margin {
		return Decision{Kind: DecisionAccept, Rate: view.CurrentRate}
	}
	if view.MaxRounds > 0 && view.Round >= view.MaxRounds {
		return Decision{Kind: DecisionReject}
	}
	counter := roundRate((view.CurrentRate + s.floor) / 2)
	return Decision{Kind: DecisionCounter, Rate: counter}
}
