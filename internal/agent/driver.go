package agent

import (
	"context"
	"fmt"

	"github.com/lendora/lendora/internal/core/application"
	"github.com/lendora/lendora/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// Driver plays two strategies against each other over an open
// negotiation until one of them accepts the standing rate.
type Driver struct {
	svc       *application.NegotiationService
	borrower  Strategy
	lender    Strategy
	maxRounds int
}

func NewDriver(
	svc *application.NegotiationService,
	borrower, lender Strategy, maxRounds int,
) (*Driver, error) {
	if svc == nil {
		return nil, fmt.Errorf("missing negotiation service")
	}
	if borrower == nil || lender == nil {
		return nil, fmt.Errorf("both strategies are required")
	}
	if maxRounds <= 0 {
		return nil, fmt.Errorf("max rounds must be positive, got %d", maxRounds)
	}
	return &Driver{svc, borrower, lender, maxRounds}, nil
}

// Run alternates turns, borrower first, and settles as soon as either
// side accepts. It fails if neither side accepts within the round
// budget.
func (d *Driver) Run(
	ctx context.Context, session domain.NegotiationSession,
) (domain.Settlement, error) {
	parties := []struct {
		name     string
		strategy Strategy
	}{
		{session.Borrower, d.borrower},
		{session.Lender, d.lender},
	}

	turn := 0
	for round := 1; round <= d.maxRounds; round++ {
		current, err := d.svc.Session(session.Id)
		if err != nil {
			return domain.Settlement{}, err
		}

		party := parties[turn%len(parties)]
		turn++

		decision := party.strategy.Decide(SessionView{
			Round:       current.RoundCount() + 1,
			Principal:   current.Principal,
			TermMonths:  current.TermMonths,
			CurrentRate: current.CurrentRate,
			MaxRounds:   d.maxRounds,
		})

		log.WithField("session", session.Id).Infof(
			"%s (%s) decides %s at %.2f%%",
			party.name, party.strategy.Name(), decision.Kind, current.CurrentRate,
		)

		switch decision.Kind {
		case DecisionAccept:
			return d.svc.AcceptAndSettle(ctx, session.Id)
		case DecisionCounter:
			if _, err := d.svc.SubmitCounterOffer(
				ctx, session.Id, decision.Rate, party.name,
			); err != nil {
				return domain.Settlement{}, err
			}
		case DecisionReject:
			return domain.Settlement{}, fmt.Errorf(
				"%s rejected the negotiation at round %d", party.name, round,
			)
		default:
			return domain.Settlement{}, fmt.Errorf("unsupported decision %d", decision.Kind)
		}
	}

	return domain.Settlement{}, fmt.Errorf(
		"no agreement after %d rounds", d.maxRounds,
	)
}
