package model

import (
	"github.com/shopspring/decimal"
)

// Form field names, shared by the form layer, the transports and FieldError.
const (
	FieldPreMoneyValuation = "pre_money_valuation"
	FieldNumberOfShares    = "number_of_shares"
	FieldCurrentOwnership  = "current_ownership"
	FieldAmountToRaise     = "amount_to_raise"
	FieldWarrantType       = "warrant_type"
	FieldExercisePrice     = "exercise_price"
	FieldDiscountPrice     = "discount_price"
	FieldFloorPrice        = "floor_price"
	FieldCapPrice          = "cap_price"
	FieldNumberOfWarrants  = "number_of_warrants"
	FieldAmountOfWarrants  = "amount_of_warrants"
	FieldCashBurn          = "cash_burn"
)

var one = decimal.NewFromInt(1)

// Validate checks the inputs structurally and returns the first violation,
// wrapped in a *FieldError. Checks run in pipeline order so the reported
// error matches what the computation would hit first.
func (in RoundInputs) Validate() error {
	for _, f := range []struct {
		name string
		v    decimal.Decimal
	}{
		{FieldPreMoneyValuation, in.PreMoneyValuation},
		{FieldNumberOfShares, in.NumberOfShares},
	} {
		if f.v.IsZero() {
			return NewFieldError(f.name, ErrMissingValuationOrShares)
		}
		if f.v.IsNegative() {
			return NewFieldError(f.name, ErrNotPositive)
		}
	}

	if in.AmountToRaise.IsZero() {
		return NewFieldError(FieldAmountToRaise, ErrMissingAmountToRaise)
	}
	if in.AmountToRaise.IsNegative() {
		return NewFieldError(FieldAmountToRaise, ErrNotPositive)
	}

	if in.FounderOwnershipBefore.IsZero() {
		return NewFieldError(FieldCurrentOwnership, ErrMissingOwnership)
	}
	if in.FounderOwnershipBefore.IsNegative() || in.FounderOwnershipBefore.GreaterThan(one) {
		return NewFieldError(FieldCurrentOwnership, ErrOwnershipOutOfRange)
	}

	if err := in.validateWarrantPrice(); err != nil {
		return err
	}
	return in.validateWarrantQuantity()
}

func (in RoundInputs) validateWarrantPrice() error {
	switch in.WarrantType {
	case WarrantFixed:
		if !in.ExercisePrice.Valid {
			return NewFieldError(FieldExercisePrice, ErrMissingExercisePrice)
		}
		if !in.ExercisePrice.Decimal.IsPositive() {
			return NewFieldError(FieldExercisePrice, ErrNotPositive)
		}
		return nil

	case WarrantFloorCap:
		if !in.DiscountPrice.Valid {
			return NewFieldError(FieldDiscountPrice, ErrMissingDiscountPrice)
		}
		d := in.DiscountPrice.Decimal
		if !d.IsPositive() || d.GreaterThanOrEqual(one) {
			return NewFieldError(FieldDiscountPrice, ErrDiscountOutOfRange)
		}
		if in.FloorPrice.Valid && !in.FloorPrice.Decimal.IsPositive() {
			return NewFieldError(FieldFloorPrice, ErrNotPositive)
		}
		if in.CapPrice.Valid && !in.CapPrice.Decimal.IsPositive() {
			return NewFieldError(FieldCapPrice, ErrNotPositive)
		}
		if in.FloorPrice.Valid && in.CapPrice.Valid && in.FloorPrice.Decimal.GreaterThan(in.CapPrice.Decimal) {
			return NewFieldError(FieldFloorPrice, ErrFloorAboveCap)
		}
		return nil

	default:
		return NewFieldError(FieldWarrantType, ErrUnknownWarrantType)
	}
}

func (in RoundInputs) validateWarrantQuantity() error {
	if !in.NumberOfWarrants.Valid && !in.AmountOfWarrants.Valid {
		return NewFieldError(FieldNumberOfWarrants, ErrMissingWarrantQuantity)
	}
	if in.NumberOfWarrants.Valid && in.NumberOfWarrants.Decimal.IsNegative() {
		return NewFieldError(FieldNumberOfWarrants, ErrNegative)
	}
	if in.AmountOfWarrants.Valid && in.AmountOfWarrants.Decimal.IsNegative() {
		return NewFieldError(FieldAmountOfWarrants, ErrNegative)
	}
	return nil
}
