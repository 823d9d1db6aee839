package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const SettlementStatusSettled = "SETTLED"

// Settlement is the immutable record produced when a negotiation
// session closes. Authenticity is established by the external
// validator collaborator, not here.
type Settlement struct {
	Id           string
	Borrower     string
	Lender       string
	Principal    float64
	FinalRate    float64
	FinalRateBps int64
	TermMonths   int
	Status       string
	SettledAt    time.Time
}

func NewSettlement(session *NegotiationSession) Settlement {
	now := time.Now()
	return Settlement{
		Id:           fmt.Sprintf("tx_%s_%d", session.Id, now.Unix()),
		Borrower:     session.Borrower,
		Lender:       session.Lender,
		Principal:    session.Principal,
		FinalRate:    session.CurrentRate,
		FinalRateBps: RateToBasisPoints(session.CurrentRate),
		TermMonths:   session.TermMonths,
		Status:       SettlementStatusSettled,
		SettledAt:    now,
	}
}

// RateToBasisPoints converts a percentage rate to its fixed-point
// basis-points encoding, round(rate * 100). Decimal arithmetic avoids
// float drift on values like 7.25.
func RateToBasisPoints(rate float64) int64 {
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
