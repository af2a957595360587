// Package scenario projects a round under three valuation assumptions by
// perturbing the pre-money valuation symmetrically around the base case.
package scenario

import (
	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/model"
	"github.com/dilutionlab/dilution-engine/internal/round"
)

// DefaultSpread is the relative pre-money perturbation of the outer scenarios.
var DefaultSpread = decimal.NewFromFloat(0.25)

var one = decimal.NewFromInt(1)

// Valuations returns the pre-money valuation of each scenario, in the order
// Pessimistic, Base, Optimistic.
func Valuations(preMoney, spread decimal.Decimal) [3]decimal.Decimal {
	return [3]decimal.Decimal{
		preMoney.Mul(one.Sub(spread)),
		preMoney,
		preMoney.Mul(one.Add(spread)),
	}
}

// Project runs the round aggregation once per scenario, holding every input
// except the pre-money valuation fixed. The scenarios share all structural
// inputs, so if one fails they all do and no set is returned.
func Project(in model.RoundInputs, spread decimal.Decimal) (model.ScenarioSet, error) {
	if spread.IsNegative() || spread.GreaterThanOrEqual(one) {
		return model.ScenarioSet{}, model.ErrSpreadOutOfRange
	}
	if err := in.Validate(); err != nil {
		return model.ScenarioSet{}, err
	}

	set := model.ScenarioSet{Spread: spread}
	for i, v := range Valuations(in.PreMoneyValuation, spread) {
		res, err := round.Aggregate(in.WithPreMoney(v))
		if err != nil {
			return model.ScenarioSet{}, err
		}
		set.Results[i] = model.ScenarioResult{Name: model.Scenarios[i], RoundResult: res}
	}

	set.WarrantLikelyUnexercised = LikelyUnexercised(set.Base().RoundResult)
	return set, nil
}

// LikelyUnexercised reports whether a warrant priced at or above the round's
// price per share is economically unlikely to be exercised.
func LikelyUnexercised(r model.RoundResult) bool {
	return r.ExercisePrice.GreaterThanOrEqual(r.PricePerShare)
}

// WarningMessage is the advisory shown when LikelyUnexercised holds.
const WarningMessage = "The warrant exercise price is higher than the price per share of the equity round. The warrant may not be exercised."
