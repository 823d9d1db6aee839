package ports

import (
	"context"

	"github.com/lendora/lendora/internal/core/domain"
)

type Verification struct {
	Valid     bool
	Reference string
	Details   string
}

// SettlementValidator is the external collaborator that attests a
// settlement record. This core passes its outcome through untouched.
type SettlementValidator interface {
	Verify(ctx context.Context, settlement domain.Settlement) (Verification, error)
}
