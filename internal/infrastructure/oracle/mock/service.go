package mockoracle

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/lendora/lendora/internal/core/ports"
)

const (
	minScore = 300
	maxScore = 850
)

type service struct{}

// NewService returns a deterministic credit oracle. The score for a
// party is derived from its name so repeated runs agree.
func NewService() ports.CreditOracle {
	return &service{}
}

func (s *service) Eligibility(
	_ context.Context, party string, principal float64,
) (ports.Eligibility, error) {
	if party == "" {
		return ports.Eligibility{}, fmt.Errorf("party must not be empty")
	}
	if principal <= 0 {
		return ports.Eligibility{}, fmt.Errorf("principal must be positive")
	}

	h := fnv.New32a()
	// nolint
	h.Write([]byte(party))
	score := minScore + int(h.Sum32()%(maxScore-minScore+1))

	// crude scorecard: a 850 score clears 100k, scaling down linearly
	maxPrincipal := float64(score-minScore) / float64(maxScore-minScore) * 100_000

	return ports.Eligibility{
		Party:        party,
		Score:        score,
		MaxPrincipal: maxPrincipal,
		Approved:     principal <= maxPrincipal,
	}, nil
}
