package agent_test

import (
	"testing"

	"github.com/lendora/lendora/internal/agent"
	"github.com/stretchr/testify/require"
)

func TestBorrowerStrategy(t *testing.T) {
	strategy, err := agent.NewBorrowerStrategy(7.0, 0.5)
	require.NoError(t, err)
	require.Equal(t, "borrower", strategy.Name())

	t.Run("accepts within margin", func(t *testing.T) {
		decision := strategy.Decide(agent.SessionView{Round: 2, CurrentRate: 7.4})
		require.Equal(t, agent.DecisionAccept, decision.Kind)
	})

	t.Run("counters toward target", func(t *testing.T) {
		decision := strategy.Decide(agent.SessionView{Round: 1, CurrentRate: 8.5, MaxRounds: 10})
		require.Equal(t, agent.DecisionCounter, decision.Kind)
		require.Equal(t, 7.75, decision.Rate)
	})

	t.Run("rejects once the round budget is spent", func(t *testing.T) {
		decision := strategy.Decide(agent.SessionView{Round: 10, CurrentRate: 12, MaxRounds: 10})
		require.Equal(t, agent.DecisionReject, decision.Kind)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		_, err := agent.NewBorrowerStrategy(-1, 0.5)
		require.Error(t, err)
		_, err = agent.NewBorrowerStrategy(7, -0.1)
		require.Error(t, err)
	})
}

func TestLenderStrategy(t *testing.T) {
	strategy, err := agent.NewLenderStrategy(7.25, 0.5)
	require.NoError(t, err)
	require.Equal(t, "lender", strategy.Name())

	t.Run("accepts at or above floor", func(t *testing.T) {
		for _, rate := range []float64{7.25, 8.0, 6.8} {
			decision := strategy.Decide(agent.SessionView{Round: 3, CurrentRate: rate})
			require.Equal(t, agent.DecisionAccept, decision.Kind)
		}
	})

	t.Run("counters toward floor when rate too low", func(t *testing.T) {
		decision := strategy.Decide(agent.SessionView{Round: 1, CurrentRate: 5.0, MaxRounds: 10})
		require.Equal(t, agent.DecisionCounter, decision.Kind)
		require.Equal(t, 6.13, decision.Rate)
	})

	t.Run("rejects once the round budget is spent", func(t *testing.T) {
		decision := strategy.Decide(agent.SessionView{Round: 10, CurrentRate: 2, MaxRounds: 10})
		require.Equal(t, agent.DecisionReject, decision.Kind)
	})
}

func TestDecisionKindString(t *testing.T) {
	require.Equal(t, "ACCEPT", agent.DecisionAccept.String())
	require.Equal(t, "COUNTER", agent.DecisionCounter.String())
	require.Equal(t, "REJECT", agent.DecisionReject.String())
}
