package mockvalidator_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lendora/lendora/internal/core/domain"
	mockvalidator "github.com/lendora/lendora/internal/infrastructure/validator/mock"
	"github.com/stretchr/testify/require"
)

func validSettlement() domain.Settlement {
	return domain.Settlement{
		Id:           "tx_head_1_1700000000",
		Borrower:     "alice",
		Lender:       "bob",
		Principal:    1000,
		FinalRate:    7.5,
		FinalRateBps: 750,
		TermMonths:   12,
		Status:       domain.SettlementStatusSettled,
		SettledAt:    time.Now(),
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	svc := mockvalidator.NewService()

	t.Run("consistent record", func(t *testing.T) {
		verification, err := svc.Verify(ctx, validSettlement())
		require.NoError(t, err)
		require.True(t, verification.Valid)
		require.True(t, strings.HasPrefix(verification.Reference, "verify_"))
	})

	t.Run("wrong status", func(t *testing.T) {
		settlement := validSettlement()
		settlement.Status = "PENDING"

		verification, err := svc.Verify(ctx, settlement)
		require.NoError(t, err)
		require.False(t, verification.Valid)
	})

	t.Run("basis points mismatch", func(t *testing.T) {
		settlement := validSettlement()
		settlement.FinalRateBps = 725

		verification, err := svc.Verify(ctx, settlement)
		require.NoError(t, err)
		require.False(t, verification.Valid)
		require.True(t, strings.Contains(verification.Details, "basis points mismatch"))
	})

	t.Run("non-positive principal", func(t *testing.T) {
		settlement := validSettlement()
		settlement.Principal = 0

		verification, err := svc.Verify(ctx, settlement)
		require.NoError(t, err)
		require.False(t, verification.Valid)
	})
}
