package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine matches exactly one of
// these with errors.Is.
var (
	// ErrMissingRequiredField is returned when a required input is absent.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrMissingWarrantQuantity is returned when neither the number nor the
	// cash amount of warrants is provided.
	ErrMissingWarrantQuantity = errors.New("either number of warrants or amount of warrants must be provided")

	// ErrInvalidFormat is returned when raw text is not a valid number.
	ErrInvalidFormat = errors.New("invalid number format")

	// ErrRangeViolation is returned when a value is outside its allowed range.
	ErrRangeViolation = errors.New("value out of range")
)

// Specific missing-field errors. Each wraps ErrMissingRequiredField.
var (
	ErrMissingValuationOrShares = fmt.Errorf("%w: pre-money valuation or number of shares", ErrMissingRequiredField)
	ErrMissingAmountToRaise     = fmt.Errorf("%w: amount to raise", ErrMissingRequiredField)
	ErrMissingOwnership         = fmt.Errorf("%w: current founder ownership", ErrMissingRequiredField)
	ErrMissingExercisePrice     = fmt.Errorf("%w: exercise price is required for fixed price warrants", ErrMissingRequiredField)
	ErrMissingDiscountPrice     = fmt.Errorf("%w: discount price is required for floor & cap warrants", ErrMissingRequiredField)
)

// Specific range errors. Each wraps ErrRangeViolation.
var (
	ErrDiscountOutOfRange  = fmt.Errorf("%w: discount price should be between 0%% and 100%%", ErrRangeViolation)
	ErrFloorAboveCap       = fmt.Errorf("%w: floor price cannot be higher than cap price", ErrRangeViolation)
	ErrOwnershipOutOfRange = fmt.Errorf("%w: founder ownership must be in (0%%, 100%%]", ErrRangeViolation)
	ErrNotPositive         = fmt.Errorf("%w: must be positive", ErrRangeViolation)
	ErrNegative            = fmt.Errorf("%w: must not be negative", ErrRangeViolation)
	ErrUnknownWarrantType  = fmt.Errorf("%w: unknown warrant type", ErrRangeViolation)
	ErrSpreadOutOfRange    = fmt.Errorf("%w: scenario spread must be in [0, 1)", ErrRangeViolation)
	ErrTooFewShares        = fmt.Errorf("%w: share count rounds to zero whole shares", ErrRangeViolation)
	ErrPriceTooSmall       = fmt.Errorf("%w: price per share is too small to issue shares", ErrRangeViolation)
)

// FieldError attaches the offending form field to an error so callers can
// highlight it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// NewFieldError wraps err with the field name.
func NewFieldError(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

// Stable error codes for transports.
const (
	CodeMissingRequiredField   = "missing_required_field"
	CodeMissingWarrantQuantity = "missing_warrant_quantity"
	CodeInvalidFormat          = "invalid_format"
	CodeRangeViolation         = "range_violation"
	CodeInternal               = "internal"
)

// ErrorCode maps err to its stable code. For joined errors the first
// matching kind, in taxonomy order, wins.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingRequiredField):
		return CodeMissingRequiredField
	case errors.Is(err, ErrMissingWarrantQuantity):
		return CodeMissingWarrantQuantity
	case errors.Is(err, ErrInvalidFormat):
		return CodeInvalidFormat
	case errors.Is(err, ErrRangeViolation):
		return CodeRangeViolation
	default:
		return CodeInternal
	}
}

// IsInputError reports whether err is one of the engine's input error kinds.
func IsInputError(err error) bool {
	return err != nil && ErrorCode(err) != CodeInternal
}

// ErrorFields returns the field names attached to err, walking joined and
// wrapped errors. Duplicates are removed; order follows the error tree.
func ErrorFields(err error) []string {
	var fields []string
	seen := make(map[string]bool)

	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if fe, ok := e.(*FieldError); ok && !seen[fe.Field] {
			seen[fe.Field] = true
			fields = append(fields, fe.Field)
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return fields
}
