package domain_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lendora/lendora/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestRateToBasisPoints(t *testing.T) {
	fixtures := []struct {
		rate     float64
		expected int64
	}{
		{7.25, 725},
		{7.5, 750},
		{8.0, 800},
		{8.5, 850},
		{0, 0},
		{0.01, 1},
		{12.345, 1235},
		{100, 10000},
	}
	for _, f := range fixtures {
		t.Run(fmt.Sprintf("%.3f", f.rate), func(t *testing.T) {
			require.Equal(t, f.expected, domain.RateToBasisPoints(f.rate))
		})
	}
}

func TestNewSettlement(t *testing.T) {
	session, err := domain.NewNegotiationSession("head_xyz", "alice", "bob", 1000, 8.5, 12)
	require.NoError(t, err)

	_, err = session.ApplyCounterOffer("alice", 7.5)
	require.NoError(t, err)
	require.NoError(t, session.Accept())
	require.NoError(t, session.MarkSettled())

	settlement := domain.NewSettlement(session)
	require.True(t, strings.HasPrefix(settlement.Id, "tx_head_xyz_"))
	require.Equal(t, "alice", settlement.Borrower)
	require.Equal(t, "bob", settlement.Lender)
	require.Equal(t, 1000.0, settlement.Principal)
	require.Equal(t, 7.5, settlement.FinalRate)
	require.Equal(t, int64(750), settlement.FinalRateBps)
	require.Equal(t, 12, settlement.TermMonths)
	require.Equal(t, domain.SettlementStatusSettled, settlement.Status)
	require.False(t, settlement.SettledAt.IsZero())
}
