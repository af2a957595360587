// Package report turns a scenario projection into presentation data: the
// series behind the calculator's four charts and the scenario results grid.
// Values here are float64 and display strings; the exact decimals stay in
// the model.
package report

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/model"
	"github.com/dilutionlab/dilution-engine/internal/scenario"
)

// Waterfall measures.
const (
	MeasureAbsolute = "absolute"
	MeasureRelative = "relative"
	MeasureTotal    = "total"
)

// Step is one bar of a waterfall chart.
type Step struct {
	Label   string  `json:"label"`
	Measure string  `json:"measure"`
	Value   float64 `json:"value"`
	Text    string  `json:"text"`
}

// Waterfall is a waterfall chart series with its y-axis range.
type Waterfall struct {
	Steps  []Step     `json:"steps"`
	YRange [2]float64 `json:"y_range"`
}

// Bar is one bar of the ownership-by-scenario chart.
type Bar struct {
	Scenario  model.Scenario `json:"scenario"`
	Value     float64        `json:"value"` // founder ownership after, in percent
	Text      string         `json:"text"`
	Hover     string         `json:"hover"`
	Highlight bool           `json:"highlight"`
}

// BarSeries is the ownership-by-scenario chart.
type BarSeries struct {
	Bars   []Bar      `json:"bars"`
	YRange [2]float64 `json:"y_range"`
}

// Slice is one slice of the share breakdown chart.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// GridRow is one metric across the three scenarios.
type GridRow struct {
	Key    string                    `json:"key"`
	Label  string                    `json:"label"`
	Values map[model.Scenario]string `json:"values"`
}

// Report is everything a renderer needs for one projection.
type Report struct {
	ValuationWaterfall  Waterfall `json:"valuation_waterfall"`
	OwnershipWaterfall  Waterfall `json:"ownership_waterfall"`
	OwnershipByScenario BarSeries `json:"ownership_by_scenario"`
	ShareBreakdown      []Slice   `json:"share_breakdown"`
	Grid                []GridRow `json:"grid"`
	Warning             string    `json:"warning,omitempty"`
}

// Build assembles the report. Single-scenario charts use the Base result.
func Build(set model.ScenarioSet) Report {
	base := set.Base().RoundResult
	r := Report{
		ValuationWaterfall:  ValuationWaterfall(base),
		OwnershipWaterfall:  OwnershipWaterfall(base),
		OwnershipByScenario: OwnershipByScenario(set),
		ShareBreakdown:      ShareBreakdown(base),
		Grid:                Grid(set),
	}
	if set.WarrantLikelyUnexercised {
		r.Warning = scenario.WarningMessage
	}
	return r
}

func f(v decimal.Decimal) float64 { return v.InexactFloat64() }

// ValuationWaterfall walks from pre-money to post-money valuation.
func ValuationWaterfall(r model.RoundResult) Waterfall {
	steps := []Step{
		{"Pre-Money", MeasureAbsolute, f(r.PreMoneyValuation), FormatCurrency(r.PreMoneyValuation, 0, true)},
		{"Equity Round", MeasureRelative, f(r.AmountRaised), FormatCurrency(r.AmountRaised, 0, true)},
		{"Warrant Exercise", MeasureRelative, f(r.WarrantAmount), FormatCurrency(r.WarrantAmount, 0, true)},
		{"Post-Money", MeasureTotal, f(r.PostMoneyValuation), FormatCurrency(r.PostMoneyValuation, 0, true)},
	}
	top := 0.0
	for _, s := range steps {
		top = math.Max(top, s.Value)
	}
	return Waterfall{Steps: steps, YRange: [2]float64{0, top * 1.1}}
}

// OwnershipWaterfall walks founder ownership, in percent, through the two
// dilution stages.
func OwnershipWaterfall(r model.RoundResult) Waterfall {
	pct := func(v decimal.Decimal) float64 { return f(v.Shift(2)) }
	steps := []Step{
		{"Initial Ownership", MeasureAbsolute, pct(r.FounderOwnershipBefore), FormatPercentage(r.FounderOwnershipBefore, 2)},
		{"Equity Round", MeasureRelative, -pct(r.DilutionFromFundraising), FormatPercentage(r.DilutionFromFundraising.Neg(), 2)},
		{"Warrant Exercise", MeasureRelative, -pct(r.DilutionFromWarrants), FormatPercentage(r.DilutionFromWarrants.Neg(), 2)},
		{"Final Ownership", MeasureTotal, pct(r.FounderOwnershipAfter), FormatPercentage(r.FounderOwnershipAfter, 2)},
	}
	return Waterfall{Steps: steps, YRange: [2]float64{0, steps[0].Value * 1.1}}
}

// OwnershipByScenario compares final founder ownership across scenarios,
// with the Base bar highlighted.
func OwnershipByScenario(set model.ScenarioSet) BarSeries {
	bars := make([]Bar, 0, len(set.Results))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, res := range set.Results {
		own := f(res.FounderOwnershipAfter.Shift(2))
		lo, hi = math.Min(lo, own), math.Max(hi, own)
		bars = append(bars, Bar{
			Scenario:  res.Name,
			Value:     own,
			Text:      FormatPercentage(res.FounderOwnershipAfter, 2),
			Hover:     fmt.Sprintf("%s Scenario Pre-Money: %s", res.Name, FormatCurrency(res.PreMoneyValuation, 2, true)),
			Highlight: res.Name == model.Base,
		})
	}
	return BarSeries{
		Bars: bars,
		YRange: [2]float64{
			RoundToSignificantDigits(math.Max(0, lo-2)),
			RoundToSignificantDigits(math.Min(100, hi)) * 1.01,
		},
	}
}

// ShareBreakdown splits the fully-diluted share count by holder.
func ShareBreakdown(r model.RoundResult) []Slice {
	founder := r.InitialShares.Mul(r.FounderOwnershipBefore)
	return []Slice{
		{"Founder", f(founder)},
		{"Other Shareholders", f(r.InitialShares.Sub(founder))},
		{"New Equity", f(r.NewSharesIssued)},
		{"Warrant Shares", f(r.NumberOfWarrantShares)},
	}
}

type metric struct {
	key, label string
	value      func(model.RoundResult) decimal.Decimal
	percent    bool
}

var metrics = []metric{
	{"preMoneyValuation", "Pre-Money Valuation", func(r model.RoundResult) decimal.Decimal { return r.PreMoneyValuation }, false},
	{"initialNumberOfShares", "Initial Number of Shares", func(r model.RoundResult) decimal.Decimal { return r.InitialShares }, false},
	{"founderOwnershipBefore", "Founder Ownership Before", func(r model.RoundResult) decimal.Decimal { return r.FounderOwnershipBefore }, true},
	{"amountRaised", "Amount Raised", func(r model.RoundResult) decimal.Decimal { return r.AmountRaised }, false},
	{"newSharesIssued", "New Shares Issued", func(r model.RoundResult) decimal.Decimal { return r.NewSharesIssued }, false},
	{"pricePerShare", "Price per Share", func(r model.RoundResult) decimal.Decimal { return r.PricePerShare }, false},
	{"warrantAmount", "Warrant Amount", func(r model.RoundResult) decimal.Decimal { return r.WarrantAmount }, false},
	{"warrantsIssued", "Warrants Issued", func(r model.RoundResult) decimal.Decimal { return r.NumberOfWarrantShares }, false},
	{"warrantExercisePrice", "Warrant Exercise Price", func(r model.RoundResult) decimal.Decimal { return r.ExercisePrice }, false},
	{"postMoneyValuation", "Post-Money Valuation", func(r model.RoundResult) decimal.Decimal { return r.PostMoneyValuation }, false},
	{"dilutionFromFundraising", "Dilution from Fundraising", func(r model.RoundResult) decimal.Decimal { return r.DilutionFromFundraising }, true},
	{"dilutionFromWarrants", "Dilution from Warrants", func(r model.RoundResult) decimal.Decimal { return r.DilutionFromWarrants }, true},
	{"founderOwnershipAfter", "Founder Ownership After", func(r model.RoundResult) decimal.Decimal { return r.FounderOwnershipAfter }, true},
}

// Grid formats every metric for every scenario: amounts reduced to k/m
// with two decimals, ownership metrics as percentages.
func Grid(set model.ScenarioSet) []GridRow {
	rows := make([]GridRow, 0, len(metrics))
	for _, m := range metrics {
		row := GridRow{Key: m.key, Label: m.label, Values: make(map[model.Scenario]string, len(set.Results))}
		for _, res := range set.Results {
			v := m.value(res.RoundResult)
			if m.percent {
				row.Values[res.Name] = FormatPercentage(v, 2)
			} else {
				row.Values[res.Name] = FormatCurrency(v, 2, true)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
