package report

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/numparse"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	ten      = decimal.NewFromInt(10)
)

// FormatCurrency renders an amount with thousands separators and at most
// decimals fraction digits. With reduce set, amounts of a thousand or more
// are shortened to "k"/"m" form: "20m", "1.50m", "25k". Reduced millions of
// ten or more, and whole reduced values, drop their decimals.
func FormatCurrency(v decimal.Decimal, decimals int32, reduce bool) string {
	if reduce {
		switch {
		case v.GreaterThanOrEqual(million):
			r := v.Div(million)
			if r.GreaterThanOrEqual(ten) || r.Equal(r.Truncate(0)) {
				decimals = 0
			}
			return numparse.GroupedFixed(r, decimals) + "m"
		case v.GreaterThanOrEqual(thousand):
			r := v.Div(thousand)
			if r.Equal(r.Truncate(0)) {
				decimals = 0
			}
			return numparse.GroupedFixed(r, decimals) + "k"
		}
	}
	return numparse.Grouped(v, decimals)
}

// FormatPercentage renders a fraction as a percentage with a fixed number
// of decimals: 0.4 → "40.00%".
func FormatPercentage(v decimal.Decimal, decimals int32) string {
	return v.Shift(2).StringFixed(decimals) + "%"
}

// RoundToSignificantDigits rounds v to two significant digits, the
// precision used for chart axis bounds: 27.6 → 28, 0.537 → 0.54.
// Zero is returned unchanged.
//
// The exponent comes from floor(log10 |v|); when |v| sits just under a
// power of ten, floating-point error in log10 can shift it by one.
func RoundToSignificantDigits(v float64) float64 {
	if v == 0 {
		return v
	}
	return RoundToExponent(v, int(math.Floor(math.Log10(math.Abs(v))))-1)
}

// RoundToExponent rounds v to the nearest multiple of 10^exp.
func RoundToExponent(v float64, exp int) float64 {
	factor := math.Pow(10, float64(exp))
	return math.Round(v/factor) * factor
}
