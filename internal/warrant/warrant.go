// Package warrant resolves a warrant's effective exercise price and the
// number of shares it converts into.
//
// Two pricing modes are supported:
//   - Fixed: the exercise price is given outright.
//   - Floor & cap: the price is the round's price per share less a discount,
//     clamped into the optional [floor, cap] bounds.
//
// Warrant quantity is given either as a share count or as a cash amount.
// Both describe one economic quantity, converted through the exercise price:
//
//	amount = number × exercisePrice
package warrant

import (
	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/model"
)

// Resolution is the resolved warrant economics for one valuation assumption.
type Resolution struct {
	ExercisePrice decimal.Decimal `json:"exercise_price"`
	Shares        decimal.Decimal `json:"shares"`
}

// Amount returns the cash raised when the warrant is exercised.
func (r Resolution) Amount() decimal.Decimal {
	return r.ExercisePrice.Mul(r.Shares)
}

var one = decimal.NewFromInt(1)

// Resolve determines the exercise price and warrant share count.
func Resolve(in model.RoundInputs, pricePerShare decimal.Decimal) (Resolution, error) {
	price, err := ExercisePrice(in, pricePerShare)
	if err != nil {
		return Resolution{}, err
	}

	shares, err := Shares(in, price)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{ExercisePrice: price, Shares: shares}, nil
}

// ExercisePrice returns the effective exercise price for the warrant type.
func ExercisePrice(in model.RoundInputs, pricePerShare decimal.Decimal) (decimal.Decimal, error) {
	switch in.WarrantType {
	case model.WarrantFixed:
		if !in.ExercisePrice.Valid {
			return decimal.Zero, model.NewFieldError(model.FieldExercisePrice, model.ErrMissingExercisePrice)
		}
		return in.ExercisePrice.Decimal, nil

	case model.WarrantFloorCap:
		if !in.DiscountPrice.Valid {
			return decimal.Zero, model.NewFieldError(model.FieldDiscountPrice, model.ErrMissingDiscountPrice)
		}
		base := pricePerShare.Mul(one.Sub(in.DiscountPrice.Decimal))
		return Clamp(base, in.FloorPrice, in.CapPrice), nil

	default:
		return decimal.Zero, model.NewFieldError(model.FieldWarrantType, model.ErrUnknownWarrantType)
	}
}

// Clamp bounds price by the optional floor and cap. With both present the
// result lies in [floor, cap]; a lone floor is a lower bound, a lone cap an
// upper bound; with neither the price is returned unchanged.
func Clamp(price decimal.Decimal, floorPrice, capPrice decimal.NullDecimal) decimal.Decimal {
	switch {
	case floorPrice.Valid && capPrice.Valid:
		return decimal.Max(floorPrice.Decimal, decimal.Min(price, capPrice.Decimal))
	case floorPrice.Valid:
		return decimal.Max(floorPrice.Decimal, price)
	case capPrice.Valid:
		return decimal.Min(price, capPrice.Decimal)
	default:
		return price
	}
}

// Shares returns the warrant share count: the given number of warrants if
// present, else the cash amount divided by the exercise price.
func Shares(in model.RoundInputs, exercisePrice decimal.Decimal) (decimal.Decimal, error) {
	if in.NumberOfWarrants.Valid {
		return in.NumberOfWarrants.Decimal, nil
	}
	if in.AmountOfWarrants.Valid {
		if !exercisePrice.IsPositive() {
			return decimal.Zero, model.NewFieldError(model.FieldExercisePrice, model.ErrNotPositive)
		}
		return in.AmountOfWarrants.Decimal.Div(exercisePrice), nil
	}
	return decimal.Zero, model.NewFieldError(model.FieldNumberOfWarrants, model.ErrMissingWarrantQuantity)
}
