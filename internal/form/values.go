package form

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/model"
	"github.com/dilutionlab/dilution-engine/internal/warrant"
)

// Values is one snapshot of the calculator form as typed by the user.
type Values struct {
	PreMoneyValuation string            `json:"pre_money_valuation" yaml:"pre_money_valuation"`
	NumberOfShares    string            `json:"number_of_shares" yaml:"number_of_shares"`
	CurrentOwnership  string            `json:"current_ownership" yaml:"current_ownership"`
	AmountToRaise     string            `json:"amount_to_raise" yaml:"amount_to_raise"`
	WarrantType       model.WarrantType `json:"warrant_type" yaml:"warrant_type"`
	ExercisePrice     string            `json:"exercise_price,omitempty" yaml:"exercise_price,omitempty"`
	DiscountPrice     string            `json:"discount_price,omitempty" yaml:"discount_price,omitempty"`
	FloorPrice        string            `json:"floor_price,omitempty" yaml:"floor_price,omitempty"`
	CapPrice          string            `json:"cap_price,omitempty" yaml:"cap_price,omitempty"`
	NumberOfWarrants  string            `json:"number_of_warrants,omitempty" yaml:"number_of_warrants,omitempty"`
	AmountOfWarrants  string            `json:"amount_of_warrants,omitempty" yaml:"amount_of_warrants,omitempty"`
}

// Defaults returns the calculator's initial form.
func Defaults() Values {
	return Values{
		PreMoneyValuation: "20m",
		NumberOfShares:    "100k",
		CurrentOwnership:  "40%",
		AmountToRaise:     "5m",
		WarrantType:       model.WarrantFixed,
		ExercisePrice:     "2.00",
		DiscountPrice:     "20%",
		FloorPrice:        "1.50",
		CapPrice:          "3.00",
		NumberOfWarrants:  "10k",
		AmountOfWarrants:  "20k",
	}
}

// Capture parses and validates a form snapshot into RoundInputs.
//
// Unlike the core, which stops at the first problem, Capture collects every
// field error and returns them joined so a caller can flag each field.
// Fields that belong to the other warrant type are ignored; an empty warrant
// type means fixed, the form's initial selection.
func Capture(v Values) (model.RoundInputs, error) {
	var errs []error
	parse := func(name, raw string) decimal.NullDecimal {
		n, err := ParseField(name, raw)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	required := func(name, raw string, missing error) decimal.Decimal {
		n, err := ParseField(name, raw)
		switch {
		case err != nil:
			errs = append(errs, err)
		case !n.Valid || n.Decimal.IsZero():
			errs = append(errs, model.NewFieldError(name, missing))
		}
		return n.Decimal
	}

	if v.WarrantType == "" {
		v.WarrantType = model.WarrantFixed
	}

	in := model.RoundInputs{
		PreMoneyValuation:      required(model.FieldPreMoneyValuation, v.PreMoneyValuation, model.ErrMissingValuationOrShares),
		NumberOfShares:         required(model.FieldNumberOfShares, v.NumberOfShares, model.ErrMissingValuationOrShares),
		FounderOwnershipBefore: required(model.FieldCurrentOwnership, v.CurrentOwnership, model.ErrMissingOwnership),
		AmountToRaise:          required(model.FieldAmountToRaise, v.AmountToRaise, model.ErrMissingAmountToRaise),
		WarrantType:            v.WarrantType,
		NumberOfWarrants:       parse(model.FieldNumberOfWarrants, v.NumberOfWarrants),
		AmountOfWarrants:       parse(model.FieldAmountOfWarrants, v.AmountOfWarrants),
	}

	switch v.WarrantType {
	case model.WarrantFixed:
		in.ExercisePrice = parse(model.FieldExercisePrice, v.ExercisePrice)
	case model.WarrantFloorCap:
		in.DiscountPrice = parse(model.FieldDiscountPrice, v.DiscountPrice)
		in.FloorPrice = parse(model.FieldFloorPrice, v.FloorPrice)
		in.CapPrice = parse(model.FieldCapPrice, v.CapPrice)
	}

	if len(errs) > 0 {
		return model.RoundInputs{}, errors.Join(errs...)
	}
	if err := in.Validate(); err != nil {
		return model.RoundInputs{}, errors.Join(collectRangeErrors(in, err)...)
	}
	return in, nil
}

// collectRangeErrors gathers the independent checks the core would report
// one at a time, starting from the first one it hit.
func collectRangeErrors(in model.RoundInputs, first error) []error {
	errs := []error{first}
	seen := map[string]bool{}
	for _, f := range model.ErrorFields(first) {
		seen[f] = true
	}
	add := func(field string, err error) {
		if !seen[field] {
			seen[field] = true
			errs = append(errs, model.NewFieldError(field, err))
		}
	}

	if !in.NumberOfWarrants.Valid && !in.AmountOfWarrants.Valid {
		add(model.FieldNumberOfWarrants, model.ErrMissingWarrantQuantity)
		add(model.FieldAmountOfWarrants, model.ErrMissingWarrantQuantity)
	}
	if in.WarrantType == model.WarrantFloorCap &&
		in.FloorPrice.Valid && in.CapPrice.Valid && in.FloorPrice.Decimal.GreaterThan(in.CapPrice.Decimal) {
		add(model.FieldFloorPrice, model.ErrFloorAboveCap)
		add(model.FieldCapPrice, model.ErrFloorAboveCap)
	}
	if in.WarrantType == model.WarrantFloorCap && in.DiscountPrice.Valid {
		if disc := in.DiscountPrice.Decimal; !disc.IsPositive() || disc.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			add(model.FieldDiscountPrice, model.ErrDiscountOutOfRange)
		}
	}
	return errs
}

// LinkValues is the raw-text form of warrant.Quantities.
type LinkValues struct {
	NumberOfWarrants string `json:"number_of_warrants"`
	AmountOfWarrants string `json:"amount_of_warrants"`
	ExercisePrice    string `json:"exercise_price"`
}

// Link parses the linked warrant fields, re-derives the sibling of the
// edited one and formats the pair back into field text.
func Link(edited string, lv LinkValues) (LinkValues, error) {
	var errs []error
	parse := func(name, raw string) decimal.NullDecimal {
		n, err := ParseField(name, raw)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	q := warrant.Quantities{
		Number:        parse(model.FieldNumberOfWarrants, lv.NumberOfWarrants),
		Amount:        parse(model.FieldAmountOfWarrants, lv.AmountOfWarrants),
		ExercisePrice: parse(model.FieldExercisePrice, lv.ExercisePrice),
	}
	if len(errs) > 0 {
		return lv, errors.Join(errs...)
	}

	q = warrant.Link(edited, q)
	out := lv
	if q.Number.Valid {
		out.NumberOfWarrants = FormatField(model.FieldNumberOfWarrants, q.Number)
	}
	if q.Amount.Valid {
		out.AmountOfWarrants = FormatField(model.FieldAmountOfWarrants, q.Amount)
	}
	return out, nil
}
