package warrant

import (
	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/model"
)

// Quantities is the linked trio of warrant fields on the form.
type Quantities struct {
	Number        decimal.NullDecimal `json:"number_of_warrants"`
	Amount        decimal.NullDecimal `json:"amount_of_warrants"`
	ExercisePrice decimal.NullDecimal `json:"exercise_price"`
}

// Link re-derives the sibling of the field the user just edited so that
// amount = number × exercisePrice keeps holding:
//
//   - number_of_warrants edited → amount recomputed
//   - amount_of_warrants edited → number recomputed
//   - exercise_price edited     → amount recomputed from number if present,
//     otherwise number recomputed from amount
//
// Without a positive exercise price nothing can be derived and q is returned
// unchanged. The calculation core never calls Link; it only consumes the
// resolved pair.
func Link(edited string, q Quantities) Quantities {
	if !q.ExercisePrice.Valid || !q.ExercisePrice.Decimal.IsPositive() {
		return q
	}
	price := q.ExercisePrice.Decimal

	fromNumber := func() {
		q.Amount = decimal.NewNullDecimal(q.Number.Decimal.Mul(price))
	}
	fromAmount := func() {
		q.Number = decimal.NewNullDecimal(q.Amount.Decimal.Div(price))
	}

	switch edited {
	case model.FieldNumberOfWarrants:
		if q.Number.Valid {
			fromNumber()
		}
	case model.FieldAmountOfWarrants:
		if q.Amount.Valid {
			fromAmount()
		}
	case model.FieldExercisePrice:
		if q.Number.Valid {
			fromNumber()
		} else if q.Amount.Valid {
			fromAmount()
		}
	}
	return q
}
