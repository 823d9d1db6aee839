package ports

import "context"

type Eligibility struct {
	Party        string
	Score        int
	MaxPrincipal float64
	Approved     bool
}

// CreditOracle is the external collaborator that scores a party before
// a negotiation is opened. Outcomes are opaque to the channel core.
type CreditOracle interface {
	Eligibility(ctx context.Context, party string, principal float64) (Eligibility, error)
}
