// Package form is the boundary between the calculator's raw text fields and
// the calculation core. It owns the field catalogue (unit, percentage and
// sign rules per field), turns one snapshot of raw values into a
// model.RoundInputs, and reports every offending field at once.
package form

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/model"
	"github.com/dilutionlab/dilution-engine/internal/numparse"
)

// Field describes one numeric input of the calculator.
type Field struct {
	Name    string           `json:"name" yaml:"name"`
	Label   string           `json:"label" yaml:"label"`
	Options numparse.Options `json:"options" yaml:"options"`
}

var (
	millions   = numparse.Options{Suffix: numparse.Millions, DecimalPlaces: numparse.DefaultDecimalPlaces}
	thousands  = numparse.Options{Suffix: numparse.Thousands, DecimalPlaces: numparse.DefaultDecimalPlaces}
	percentage = numparse.Options{Percentage: true, DecimalPlaces: numparse.DefaultDecimalPlaces}
	plain      = numparse.Options{DecimalPlaces: numparse.DefaultDecimalPlaces}
)

var catalogue = []Field{
	{model.FieldPreMoneyValuation, "Pre-Money Valuation", millions},
	{model.FieldNumberOfShares, "Number of Shares", thousands},
	{model.FieldCurrentOwnership, "Current Founder Ownership", percentage},
	{model.FieldAmountToRaise, "Amount to Raise", millions},
	{model.FieldExercisePrice, "Exercise Price", plain},
	{model.FieldDiscountPrice, "Discount", percentage},
	{model.FieldFloorPrice, "Floor Price", plain},
	{model.FieldCapPrice, "Cap Price", plain},
	{model.FieldNumberOfWarrants, "Number of Warrants", thousands},
	{model.FieldAmountOfWarrants, "Amount of Warrants", thousands},
	{model.FieldCashBurn, "Monthly Cash Burn", numparse.Options{
		Suffix: numparse.Thousands, AllowNegative: true, DecimalPlaces: numparse.DefaultDecimalPlaces,
	}},
}

var byName = func() map[string]Field {
	m := make(map[string]Field, len(catalogue))
	for _, f := range catalogue {
		m[f.Name] = f
	}
	return m
}()

// Fields returns the field catalogue in form order.
func Fields() []Field {
	out := make([]Field, len(catalogue))
	copy(out, catalogue)
	return out
}

// Options returns the parse options of a named field.
func Options(name string) (numparse.Options, bool) {
	f, ok := byName[name]
	return f.Options, ok
}

// ErrUnknownField is returned for a field name outside the catalogue.
var ErrUnknownField = errors.New("form: unknown field")

// ParseField parses raw text with the named field's options.
func ParseField(name, raw string) (decimal.NullDecimal, error) {
	opts, ok := Options(name)
	if !ok {
		return decimal.NullDecimal{}, model.NewFieldError(name, ErrUnknownField)
	}
	v, err := numparse.Parse(raw, opts)
	if err != nil {
		return decimal.NullDecimal{}, model.NewFieldError(name, err)
	}
	return v, nil
}

// FormatField formats a value with the named field's options.
func FormatField(name string, v decimal.NullDecimal) string {
	opts, ok := Options(name)
	if !ok {
		opts = plain
	}
	return numparse.Format(v, opts)
}
