package mockvalidator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lendora/lendora/internal/core/domain"
	"github.com/lendora/lendora/internal/core/ports"
)

type service struct{}

// NewService returns a validator that checks a settlement record for
// internal consistency without contacting a chain indexer.
func NewService() ports.SettlementValidator {
	return &service{}
}

func (s *service) Verify(
	_ context.Context, settlement domain.Settlement,
) (ports.Verification, error) {
	reference := fmt.Sprintf("verify_%s", uuid.New().String())

	if settlement.Status != domain.SettlementStatusSettled {
		return ports.Verification{
			Reference: reference,
			Details:   fmt.Sprintf("unexpected status %s", settlement.Status),
		}, nil
	}
	if settlement.Principal <= 0 {
		return ports.Verification{
			Reference: reference,
			Details:   "principal must be positive",
		}, nil
	}
	if expected := domain.RateToBasisPoints(settlement.FinalRate); expected != settlement.FinalRateBps {
		return ports.Verification{
			Reference: reference,
			Details: fmt.Sprintf(
				"basis points mismatch, got %d, want %d",
				settlement.FinalRateBps, expected,
			),
		}, nil
	}

	return ports.Verification{
		Valid:     true,
		Reference: reference,
		Details:   "settlement record consistent",
	}, nil
}
