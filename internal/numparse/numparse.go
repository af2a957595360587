// Package numparse converts the calculator's free-text numeric fields into
// decimals and back. It understands thousands separators, the k/m magnitude
// suffixes and percentage fields.
//
// Parsing is exact (decimal shifts, no float rounding). Formatting is lossy:
// it rounds to the field's configured number of decimals, so
// Parse(Format(Parse(raw))) equals Parse(raw) only up to that precision.
package numparse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/dilutionlab/dilution-engine/internal/model"
)

// Suffix is a magnitude unit appended to a number.
type Suffix string

const (
	NoSuffix  Suffix = ""
	Thousands Suffix = "k"
	Millions  Suffix = "m"
)

// exponent returns the power of ten the suffix stands for.
func (s Suffix) exponent() int32 {
	switch s {
	case Thousands:
		return 3
	case Millions:
		return 6
	default:
		return 0
	}
}

// DefaultDecimalPlaces is the formatting precision used by the calculator form.
const DefaultDecimalPlaces int32 = 2

// Options configures how one field is parsed and formatted.
type Options struct {
	// Suffix is the field's unit: a bare number typed into a Millions field
	// means millions. An explicitly typed k/m suffix overrides it.
	Suffix Suffix `json:"suffix,omitempty" yaml:"suffix,omitempty"`

	// Percentage fields accept an optional trailing '%' and are stored as
	// fractions ("40%" → 0.4).
	Percentage bool `json:"percentage,omitempty" yaml:"percentage,omitempty"`

	// AllowNegative permits a leading '-'.
	AllowNegative bool `json:"allow_negative,omitempty" yaml:"allow_negative,omitempty"`

	// DecimalPlaces caps the fraction digits Format emits.
	DecimalPlaces int32 `json:"decimal_places" yaml:"decimal_places"`
}

// numberRegex matches the text left after separators, suffix, percent sign
// have been stripped: an optional sign, digits, an optional fraction.
var numberRegex = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Parse converts raw field text into a decimal.
//
// Blank input (or input holding only a suffix or '%') yields an invalid
// NullDecimal and no error: "not provided" is distinct from zero. Text that
// is not a number yields an error wrapping model.ErrInvalidFormat.
func Parse(raw string, opts Options) (decimal.NullDecimal, error) {
	value := stripSeparators(raw)
	if value == "" {
		return decimal.NullDecimal{}, nil
	}

	if opts.Percentage {
		value = strings.TrimSuffix(value, "%")
	}

	unit := opts.Suffix
	if n := len(value); n > 0 {
		switch last := Suffix(strings.ToLower(value[n-1:])); last {
		case Thousands, Millions:
			unit = last
			value = value[:n-1]
		}
	}

	if value == "" {
		return decimal.NullDecimal{}, nil
	}

	if !numberRegex.MatchString(value) {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q", model.ErrInvalidFormat, raw)
	}
	if strings.HasPrefix(value, "-") && !opts.AllowNegative {
		return decimal.NullDecimal{}, fmt.Errorf("%w: negative values not allowed: %q", model.ErrInvalidFormat, raw)
	}

	v, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q: %v", model.ErrInvalidFormat, raw, err)
	}

	v = v.Shift(unit.exponent())
	if opts.Percentage {
		v = v.Shift(-2)
	}
	return decimal.NewNullDecimal(v), nil
}

// MustParse is Parse for trusted literals such as defaults and tests.
// It panics on invalid input.
func MustParse(raw string, opts Options) decimal.NullDecimal {
	v, err := Parse(raw, opts)
	if err != nil {
		panic(err)
	}
	return v
}

// Format is the inverse of Parse: it rescales percentages, divides by the
// field's suffix, groups thousands and appends the suffix and '%' markers.
// An invalid NullDecimal formats as the empty string.
func Format(v decimal.NullDecimal, opts Options) string {
	if !v.Valid {
		return ""
	}

	x := v.Decimal
	if opts.Percentage {
		x = x.Shift(2)
	}
	x = x.Shift(-opts.Suffix.exponent())

	out := Grouped(x, opts.DecimalPlaces) + string(opts.Suffix)
	if opts.Percentage {
		out += "%"
	}
	return out
}

var printer = message.NewPrinter(language.English)

// Grouped formats x with comma thousands separators and at most maxDecimals
// fraction digits, trailing zeros dropped ("1234.5" → "1,234.5").
func Grouped(x decimal.Decimal, maxDecimals int32) string {
	if maxDecimals < 0 {
		maxDecimals = 0
	}
	x = x.Round(maxDecimals)
	return printer.Sprint(number.Decimal(x.InexactFloat64(),
		number.MaxFractionDigits(int(maxDecimals))))
}

// GroupedFixed formats x with comma thousands separators and exactly
// decimals fraction digits ("1234.5" with 2 → "1,234.50").
func GroupedFixed(x decimal.Decimal, decimals int32) string {
	if decimals < 0 {
		decimals = 0
	}
	x = x.Round(decimals)
	return printer.Sprint(number.Decimal(x.InexactFloat64(),
		number.MinFractionDigits(int(decimals)),
		number.MaxFractionDigits(int(decimals))))
}

// stripSeparators removes thousands separators and every whitespace rune.
func stripSeparators(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}
