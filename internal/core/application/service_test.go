package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lendora/lendora/internal/core/application"
	"github.com/lendora/lendora/internal/core/domain"
	"github.com/lendora/lendora/internal/core/ports"
	"github.com/lendora/lendora/internal/infrastructure/hydra"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *application.NegotiationService {
	cfg := hydra.Config{
		Mode:               hydra.ModeDirectOnly,
		DirectModeDelay:    time.Millisecond,
		TransitionTimeout:  2 * time.Second,
		ContestationPeriod: time.Minute,
	}
	svc := application.NewNegotiationService(func() (ports.HeadClient, error) {
		return hydra.NewHeadClient(cfg)
	})

	ctx := context.Background()
	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() {
		// nolint
		svc.Stop(context.Background())
	})
	return svc
}

func TestNegotiationEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	session, err := svc.OpenNegotiation(ctx, "alice", "bob", 1000, 8.5, 12)
	require.NoError(t, err)
	require.NotEmpty(t, session.Id)
	require.Equal(t, 8.5, session.CurrentRate)
	require.Equal(t, domain.SessionOpen, session.Status)

	offers := []struct {
		from string
		rate float64
	}{
		{"alice", 7.5},
		{"bob", 8.0},
		{"alice", 7.25},
		{"bob", 7.5},
	}
	for i, offer := range offers {
		result, err := svc.SubmitCounterOffer(ctx, session.Id, offer.rate, offer.from)
		require.NoError(t, err)
		require.Equal(t, i+1, result.Round)
		require.Equal(t, offer.rate, result.NewRate)
	}

	current, err := svc.Session(session.Id)
	require.NoError(t, err)
	require.Equal(t, 4, current.RoundCount())
	require.Equal(t, 7.5, current.CurrentRate)
	require.Equal(t, 8.5, current.OriginalRate)

	settlement, err := svc.AcceptAndSettle(ctx, session.Id)
	require.NoError(t, err)
	require.Equal(t, "alice", settlement.Borrower)
	require.Equal(t, "bob", settlement.Lender)
	require.Equal(t, 7.5, settlement.FinalRate)
	require.Equal(t, int64(750), settlement.FinalRateBps)
	require.Equal(t, domain.SettlementStatusSettled, settlement.Status)

	// The session is gone once settled.
	_, err = svc.Session(session.Id)
	requireSessionNotFound(t, err)

	_, err = svc.AcceptAndSettle(ctx, session.Id)
	requireSessionNotFound(t, err)

	_, err = svc.SubmitCounterOffer(ctx, session.Id, 7.0, "alice")
	requireSessionNotFound(t, err)
}

func TestOpenNegotiationValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	fixtures := []struct {
		name      string
		borrower  string
		lender    string
		principal float64
		rate      float64
		term      int
	}{
		{"zero principal", "alice", "bob", 0, 8.5, 12},
		{"rate out of range", "alice", "bob", 1000, 120, 12},
		{"zero term", "alice", "bob", 1000, 8.5, 0},
		{"missing borrower", "", "bob", 1000, 8.5, 12},
		{"missing lender", "alice", "", 1000, 8.5, 12},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			_, err := svc.OpenNegotiation(ctx, f.borrower, f.lender, f.principal, f.rate, f.term)
			require.Error(t, err)
		})
	}

	require.Equal(t, 0, svc.Status().ActiveSessions)
}

func TestUnknownSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Session("missing")
	requireSessionNotFound(t, err)

	_, err = svc.SubmitCounterOffer(ctx, "missing", 7.5, "alice")
	requireSessionNotFound(t, err)

	_, err = svc.AcceptAndSettle(ctx, "missing")
	requireSessionNotFound(t, err)
}

func TestConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.OpenNegotiation(ctx, "alice", "bob", 1000, 8.5, 12)
	require.NoError(t, err)
	second, err := svc.OpenNegotiation(ctx, "carol", "dave", 5000, 10.0, 24)
	require.NoError(t, err)
	require.NotEqual(t, first.Id, second.Id)
	require.Equal(t, 2, svc.Status().ActiveSessions)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rate := 8.0 - float64(i)*0.1
			if _, err := svc.SubmitCounterOffer(ctx, first.Id, rate, "alice"); err != nil {
				errs <- fmt.Errorf("first session: %s", err)
			}
		}(i)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rate := 9.5 - float64(i)*0.1
			if _, err := svc.SubmitCounterOffer(ctx, second.Id, rate, "carol"); err != nil {
				errs <- fmt.Errorf("second session: %s", err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	session, err := svc.Session(first.Id)
	require.NoError(t, err)
	require.Equal(t, 4, session.RoundCount())
	session, err = svc.Session(second.Id)
	require.NoError(t, err)
	require.Equal(t, 4, session.RoundCount())

	// Settling one session leaves the other untouched.
	_, err = svc.AcceptAndSettle(ctx, first.Id)
	require.NoError(t, err)
	require.Equal(t, 1, svc.Status().ActiveSessions)

	session, err = svc.Session(second.Id)
	require.NoError(t, err)
	require.Equal(t, domain.SessionOpen, session.Status)

	_, err = svc.AcceptAndSettle(ctx, second.Id)
	require.NoError(t, err)
	require.Equal(t, 0, svc.Status().ActiveSessions)
}

func TestStatusReportsDirectMode(t *testing.T) {
	svc := newTestService(t)

	status := svc.Status()
	require.False(t, status.Connected)
	require.True(t, status.DirectMode)
	require.Equal(t, 0, status.ActiveSessions)

	session, err := svc.OpenNegotiation(context.Background(), "alice", "bob", 1000, 8.5, 12)
	require.NoError(t, err)

	status = svc.Status()
	require.True(t, status.DirectMode)
	require.Equal(t, 1, status.ActiveSessions)
	require.Equal(t, ports.HeadStateOpen, status.HeadState)
	require.NotEmpty(t, session.Id)
}

func requireSessionNotFound(t *testing.T, err error) {
	require.Error(t, err)
	var notFound application.SessionNotFoundError
	require.True(t, errors.As(err, &notFound))
}
