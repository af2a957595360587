// Package dilution computes a founder's ownership through the two stages of
// a round with warrants: the equity raise first, warrant exercise second.
//
// Dilution is attributed to its cause in that order rather than as a single
// blended delta, so the two steps always add up:
//
//	ownershipBefore − fromFundraising − fromWarrants == ownershipAfter
package dilution

import (
	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/model"
)

// Outcome is the founder ownership trajectory through the round.
type Outcome struct {
	OriginalFounderShares   decimal.Decimal `json:"original_founder_shares"`
	SharesAfterRound        decimal.Decimal `json:"shares_after_round"`
	SharesAfterAll          decimal.Decimal `json:"shares_after_all"`
	OwnershipAfterRound     decimal.Decimal `json:"ownership_after_round"`
	FounderOwnershipAfter   decimal.Decimal `json:"founder_ownership_after"`
	DilutionFromFundraising decimal.Decimal `json:"dilution_from_fundraising"`
	DilutionFromWarrants    decimal.Decimal `json:"dilution_from_warrants"`
}

// Compute runs both dilution stages. Share counts are rounded to whole
// shares; ownership fractions are left unrounded. A share total that
// rounds to zero whole shares is rejected on number_of_shares.
func Compute(in model.RoundInputs, newSharesIssued, warrantShares decimal.Decimal) (Outcome, error) {
	before := in.FounderOwnershipBefore
	founderShares := in.NumberOfShares.Mul(before).Round(0)

	afterRound := in.NumberOfShares.Add(newSharesIssued).Round(0)
	afterAll := in.NumberOfShares.Add(newSharesIssued).Add(warrantShares).Round(0)
	if !afterRound.IsPositive() || !afterAll.IsPositive() {
		return Outcome{}, model.NewFieldError(model.FieldNumberOfShares, model.ErrTooFewShares)
	}

	ownershipAfterRound := founderShares.Div(afterRound)
	ownershipAfterAll := founderShares.Div(afterAll)

	return Outcome{
		OriginalFounderShares:   founderShares,
		SharesAfterRound:        afterRound,
		SharesAfterAll:          afterAll,
		OwnershipAfterRound:     ownershipAfterRound,
		FounderOwnershipAfter:   ownershipAfterAll,
		DilutionFromFundraising: before.Sub(ownershipAfterRound),
		DilutionFromWarrants:    ownershipAfterRound.Sub(ownershipAfterAll),
	}, nil
}
