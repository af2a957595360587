// Package model defines the core domain types shared across the dilution engine.
// All monetary values, share counts and ownership fractions use
// shopspring/decimal; float64 is never used for money.
package model

import (
	"github.com/shopspring/decimal"
)

// WarrantType selects how the warrant exercise price is determined.
type WarrantType string

const (
	// WarrantFixed uses the exercise price entered by the user.
	WarrantFixed WarrantType = "fixed"
	// WarrantFloorCap derives the exercise price from the round's price per
	// share minus a discount, clamped into optional floor/cap bounds.
	WarrantFloorCap WarrantType = "floor_cap"
)

// RoundInputs is one fully-resolved snapshot of the calculator form.
// It is passed by value into the core and never retained across calls.
//
// Required fields use the zero value to mean "not provided"; optional fields
// are NullDecimal so that a provided zero stays distinct from absence.
type RoundInputs struct {
	PreMoneyValuation      decimal.Decimal `json:"pre_money_valuation"`
	NumberOfShares         decimal.Decimal `json:"number_of_shares"`
	FounderOwnershipBefore decimal.Decimal `json:"founder_ownership_before"` // fraction in (0,1]
	AmountToRaise          decimal.Decimal `json:"amount_to_raise"`
	WarrantType            WarrantType     `json:"warrant_type"`

	ExercisePrice    decimal.NullDecimal `json:"exercise_price"` // fixed only
	DiscountPrice    decimal.NullDecimal `json:"discount_price"` // floor_cap only, fraction in (0,1)
	FloorPrice       decimal.NullDecimal `json:"floor_price"`
	CapPrice         decimal.NullDecimal `json:"cap_price"`
	NumberOfWarrants decimal.NullDecimal `json:"number_of_warrants"`
	AmountOfWarrants decimal.NullDecimal `json:"amount_of_warrants"`
}

// WithPreMoney returns a copy of the inputs with a different pre-money
// valuation. Every other field is held fixed.
func (in RoundInputs) WithPreMoney(v decimal.Decimal) RoundInputs {
	in.PreMoneyValuation = v
	return in
}

// RoundResult is the outcome of one round under a single valuation assumption.
type RoundResult struct {
	// Echo of the assumption the result was computed under.
	PreMoneyValuation      decimal.Decimal `json:"pre_money_valuation"`
	InitialShares          decimal.Decimal `json:"initial_shares"`
	FounderOwnershipBefore decimal.Decimal `json:"founder_ownership_before"`
	AmountRaised           decimal.Decimal `json:"amount_raised"`

	PricePerShare         decimal.Decimal `json:"price_per_share"`
	NewSharesIssued       decimal.Decimal `json:"new_shares_issued"`
	ExercisePrice         decimal.Decimal `json:"exercise_price"`
	NumberOfWarrantShares decimal.Decimal `json:"number_of_warrant_shares"`
	WarrantAmount         decimal.Decimal `json:"warrant_amount"` // exercisePrice × warrant shares
	PostMoneyValuation    decimal.Decimal `json:"post_money_valuation"`

	OriginalFounderShares   decimal.Decimal `json:"original_founder_shares"`
	OwnershipAfterRound     decimal.Decimal `json:"ownership_after_round"` // before warrant exercise
	FounderOwnershipAfter   decimal.Decimal `json:"founder_ownership_after"`
	DilutionFromFundraising decimal.Decimal `json:"dilution_from_fundraising"`
	DilutionFromWarrants    decimal.Decimal `json:"dilution_from_warrants"`
}

// Scenario names a valuation assumption.
type Scenario string

const (
	Pessimistic Scenario = "Pessimistic"
	Base        Scenario = "Base"
	Optimistic  Scenario = "Optimistic"
)

// Scenarios lists the assumptions in presentation order.
var Scenarios = [3]Scenario{Pessimistic, Base, Optimistic}

// ScenarioResult tags a RoundResult with its scenario.
type ScenarioResult struct {
	Name Scenario `json:"name"`
	RoundResult
}

// ScenarioSet is the full projection for one form snapshot: exactly three
// results in the order Pessimistic, Base, Optimistic.
type ScenarioSet struct {
	Spread  decimal.Decimal   `json:"spread"`
	Results [3]ScenarioResult `json:"results"`

	// WarrantLikelyUnexercised is an advisory, not a fault: the Base
	// scenario's exercise price is at or above its price per share.
	WarrantLikelyUnexercised bool `json:"warrant_likely_unexercised"`
}

// Base returns the Base scenario result.
func (s ScenarioSet) Base() ScenarioResult {
	return s.Results[1]
}

// Lookup returns the result for the named scenario.
func (s ScenarioSet) Lookup(name Scenario) (ScenarioResult, bool) {
	for _, r := range s.Results {
		if r.Name == name {
			return r, true
		}
	}
	return ScenarioResult{}, false
}
