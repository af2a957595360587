// Package round aggregates one financing round under a single valuation
// assumption:
//
//	pricePerShare   = preMoney / shares
//	newSharesIssued = round(amountToRaise / pricePerShare)
//	warrant         = exercise price + warrant shares (package warrant)
//	warrantAmount   = exercisePrice × warrantShares
//	dilution        = two-stage ownership (package dilution)
//	postMoney       = preMoney + amountToRaise + warrantAmount
//
// Every function is pure: the inputs are passed by value and nothing is
// retained between calls. Share counts are rounded to whole shares; money
// and ownership fractions are left unrounded until presentation.
package round

import (
	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/dilution"
	"github.com/dilutionlab/dilution-engine/internal/model"
	"github.com/dilutionlab/dilution-engine/internal/warrant"
)

// PricePerShare returns preMoney / shares.
func PricePerShare(in model.RoundInputs) (decimal.Decimal, error) {
	if in.PreMoneyValuation.IsZero() || in.NumberOfShares.IsZero() {
		field := model.FieldPreMoneyValuation
		if in.NumberOfShares.IsZero() {
			field = model.FieldNumberOfShares
		}
		return decimal.Zero, model.NewFieldError(field, model.ErrMissingValuationOrShares)
	}
	pps := in.PreMoneyValuation.Div(in.NumberOfShares)
	if !pps.IsPositive() {
		return decimal.Zero, model.NewFieldError(model.FieldPreMoneyValuation, model.ErrPriceTooSmall)
	}
	return pps, nil
}

// NewSharesIssued returns the whole number of shares the raise buys at
// pricePerShare.
func NewSharesIssued(in model.RoundInputs, pricePerShare decimal.Decimal) (decimal.Decimal, error) {
	if in.AmountToRaise.IsZero() {
		return decimal.Zero, model.NewFieldError(model.FieldAmountToRaise, model.ErrMissingAmountToRaise)
	}
	if !pricePerShare.IsPositive() {
		return decimal.Zero, model.NewFieldError(model.FieldPreMoneyValuation, model.ErrPriceTooSmall)
	}
	return in.AmountToRaise.Div(pricePerShare).Round(0), nil
}

// PostMoneyValuation returns preMoney + amountToRaise + warrantAmount.
func PostMoneyValuation(in model.RoundInputs, warrantAmount decimal.Decimal) decimal.Decimal {
	return in.PreMoneyValuation.Add(in.AmountToRaise).Add(warrantAmount)
}

// Aggregate runs the full pipeline. Any missing or invalid input aborts the
// computation; no partial result is returned.
func Aggregate(in model.RoundInputs) (model.RoundResult, error) {
	if err := in.Validate(); err != nil {
		return model.RoundResult{}, err
	}

	pps, err := PricePerShare(in)
	if err != nil {
		return model.RoundResult{}, err
	}

	newShares, err := NewSharesIssued(in, pps)
	if err != nil {
		return model.RoundResult{}, err
	}

	w, err := warrant.Resolve(in, pps)
	if err != nil {
		return model.RoundResult{}, err
	}
	warrantAmount := w.Amount()

	out, err := dilution.Compute(in, newShares, w.Shares)
	if err != nil {
		return model.RoundResult{}, err
	}

	return model.RoundResult{
		PreMoneyValuation:      in.PreMoneyValuation,
		InitialShares:          in.NumberOfShares,
		FounderOwnershipBefore: in.FounderOwnershipBefore,
		AmountRaised:           in.AmountToRaise,

		PricePerShare:         pps,
		NewSharesIssued:       newShares,
		ExercisePrice:         w.ExercisePrice,
		NumberOfWarrantShares: w.Shares,
		WarrantAmount:         warrantAmount,
		PostMoneyValuation:    PostMoneyValuation(in, warrantAmount),

		OriginalFounderShares:   out.OriginalFounderShares,
		OwnershipAfterRound:     out.OwnershipAfterRound,
		FounderOwnershipAfter:   out.FounderOwnershipAfter,
		DilutionFromFundraising: out.DilutionFromFundraising,
		DilutionFromWarrants:    out.DilutionFromWarrants,
	}, nil
}
