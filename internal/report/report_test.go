package report

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/model"
	"github.com/dilutionlab/dilution-engine/internal/scenario"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func nd(f float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(f))
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func referenceSet(t *testing.T, exercisePrice float64) model.ScenarioSet {
	t.Helper()
	in := model.RoundInputs{
		PreMoneyValuation:      d(20_000_000),
		NumberOfShares:         d(100_000),
		FounderOwnershipBefore: d(0.4),
		AmountToRaise:          d(5_000_000),
		WarrantType:            model.WarrantFixed,
		ExercisePrice:          nd(exercisePrice),
		NumberOfWarrants:       nd(10_000),
	}
	set, err := scenario.Project(in, scenario.DefaultSpread)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return set
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int32
		reduce   bool
		want     string
	}{
		{20_000_000, 0, true, "20m"},
		{1_500_000, 2, true, "1.50m"},
		{25_020_000, 2, true, "25m"},
		{20_000, 2, true, "20k"},
		{33_333, 2, true, "33.33k"},
		{200, 2, true, "200"},
		{1_234.5, 2, false, "1,234.5"},
		{20_000_000, 0, false, "20,000,000"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(d(tt.value), tt.decimals, tt.reduce); got != tt.want {
			t.Errorf("FormatCurrency(%v, %d, %v) = %q, want %q", tt.value, tt.decimals, tt.reduce, got, tt.want)
		}
	}
}

func TestFormatPercentage(t *testing.T) {
	if got := FormatPercentage(d(0.4), 2); got != "40.00%" {
		t.Errorf("got %q", got)
	}
	if got := FormatPercentage(d(-0.08), 2); got != "-8.00%" {
		t.Errorf("got %q", got)
	}
	if got := FormatPercentage(decimal.NewFromInt(8).Div(decimal.NewFromInt(27)), 2); got != "29.63%" {
		t.Errorf("got %q", got)
	}
}

func TestRoundToSignificantDigits(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{27.6, 28},
		{25.907, 26},
		{0.537, 0.54},
		{1234, 1200},
		{-27.6, -28},
	}
	for _, tt := range tests {
		if got := RoundToSignificantDigits(tt.in); !near(got, tt.want) {
			t.Errorf("RoundToSignificantDigits(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValuationWaterfall(t *testing.T) {
	w := ValuationWaterfall(referenceSet(t, 2).Base().RoundResult)
	if len(w.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(w.Steps))
	}
	want := []struct {
		label, measure string
		value          float64
	}{
		{"Pre-Money", MeasureAbsolute, 20_000_000},
		{"Equity Round", MeasureRelative, 5_000_000},
		{"Warrant Exercise", MeasureRelative, 20_000},
		{"Post-Money", MeasureTotal, 25_020_000},
	}
	for i, s := range w.Steps {
		if s.Label != want[i].label || s.Measure != want[i].measure || !near(s.Value, want[i].value) {
			t.Errorf("step %d: got %+v, want %+v", i, s, want[i])
		}
	}
	if !near(w.YRange[1], 25_020_000*1.1) {
		t.Errorf("expected y max 110%% of post-money, got %v", w.YRange[1])
	}
	if w.Steps[0].Text != "20m" {
		t.Errorf("expected label 20m, got %q", w.Steps[0].Text)
	}
}

func TestOwnershipWaterfall(t *testing.T) {
	w := OwnershipWaterfall(referenceSet(t, 2).Base().RoundResult)
	if !near(w.Steps[0].Value, 40) || !near(w.Steps[1].Value, -8) {
		t.Errorf("unexpected steps: %+v", w.Steps)
	}
	if w.Steps[1].Text != "-8.00%" || w.Steps[3].Text != "29.63%" {
		t.Errorf("unexpected labels: %q, %q", w.Steps[1].Text, w.Steps[3].Text)
	}
	// The relative steps land on the total.
	sum := w.Steps[0].Value + w.Steps[1].Value + w.Steps[2].Value
	if math.Abs(sum-w.Steps[3].Value) > 1e-6 {
		t.Errorf("steps sum to %v, total is %v", sum, w.Steps[3].Value)
	}
	if !near(w.YRange[1], 44) {
		t.Errorf("expected y max 44, got %v", w.YRange[1])
	}
}

func TestOwnershipByScenario(t *testing.T) {
	s := OwnershipByScenario(referenceSet(t, 2))
	if len(s.Bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(s.Bars))
	}
	for i, b := range s.Bars {
		if b.Scenario != model.Scenarios[i] {
			t.Errorf("bar %d: expected %s, got %s", i, model.Scenarios[i], b.Scenario)
		}
		if b.Highlight != (b.Scenario == model.Base) {
			t.Errorf("bar %s: wrong highlight", b.Scenario)
		}
	}
	if s.Bars[1].Hover != "Base Scenario Pre-Money: 20m" {
		t.Errorf("unexpected hover %q", s.Bars[1].Hover)
	}
	// Ownership spans roughly 27.9% to 29.6%.
	if !near(s.YRange[0], 26) || !near(s.YRange[1], 30*1.01) {
		t.Errorf("unexpected y range %v", s.YRange)
	}
}

func TestShareBreakdown(t *testing.T) {
	slices := ShareBreakdown(referenceSet(t, 2).Base().RoundResult)
	want := map[string]float64{
		"Founder":            40_000,
		"Other Shareholders": 60_000,
		"New Equity":         25_000,
		"Warrant Shares":     10_000,
	}
	if len(slices) != len(want) {
		t.Fatalf("expected %d slices, got %d", len(want), len(slices))
	}
	for _, s := range slices {
		if !near(s.Value, want[s.Label]) {
			t.Errorf("%s: got %v, want %v", s.Label, s.Value, want[s.Label])
		}
	}
}

func TestGrid(t *testing.T) {
	rows := Grid(referenceSet(t, 2))
	if len(rows) != 13 {
		t.Fatalf("expected 13 metrics, got %d", len(rows))
	}

	byKey := make(map[string]GridRow, len(rows))
	for _, r := range rows {
		if len(r.Values) != 3 {
			t.Errorf("%s: expected 3 scenario values, got %d", r.Key, len(r.Values))
		}
		byKey[r.Key] = r
	}

	checks := []struct {
		key      string
		scenario model.Scenario
		want     string
	}{
		{"preMoneyValuation", model.Pessimistic, "15m"},
		{"preMoneyValuation", model.Base, "20m"},
		{"preMoneyValuation", model.Optimistic, "25m"},
		{"pricePerShare", model.Base, "200"},
		{"newSharesIssued", model.Pessimistic, "33.33k"},
		{"warrantsIssued", model.Base, "10k"},
		{"warrantExercisePrice", model.Base, "2"},
		{"founderOwnershipBefore", model.Base, "40.00%"},
		{"dilutionFromFundraising", model.Base, "8.00%"},
		{"founderOwnershipAfter", model.Base, "29.63%"},
	}
	for _, c := range checks {
		if got := byKey[c.key].Values[c.scenario]; got != c.want {
			t.Errorf("%s/%s: got %q, want %q", c.key, c.scenario, got, c.want)
		}
	}
}

func TestBuild_Warning(t *testing.T) {
	if r := Build(referenceSet(t, 2)); r.Warning != "" {
		t.Errorf("expected no warning, got %q", r.Warning)
	}
	if r := Build(referenceSet(t, 500)); r.Warning != scenario.WarningMessage {
		t.Errorf("expected advisory warning, got %q", r.Warning)
	}
}
