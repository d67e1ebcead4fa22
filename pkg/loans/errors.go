package loans

import (
	"errors"
	"fmt"

	"github.com/iwvelando/loan-revision/pkg/datetime"
)

// ErrInvalidParameters is wrapped by every ValidationError so callers can
// test with errors.Is.
var ErrInvalidParameters = errors.New("invalid loan parameters")

// ValidationError describes the first LoanParameters field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidParameters, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameters
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the parameters before any schedule is computed.
func (p LoanParameters) Validate() error {
	if p.Price <= 0 {
		return invalid("price", "must be positive, got %.2f", p.Price)
	}
	if p.DownPayment < 0 {
		return invalid("downPayment", "must not be negative, got %.2f", p.DownPayment)
	}
	if p.DownPayment >= p.Price {
		return invalid("downPayment", "must be lower than the price (%.2f >= %.2f)", p.DownPayment, p.Price)
	}
	if p.InterestRate <= 0 {
		return invalid("interestRate", "must be positive, got %v", p.InterestRate)
	}
	if !p.RatePeriod.Valid() {
		return invalid("ratePeriod", "must be annual or monthly")
	}
	if p.Installments <= 0 {
		return invalid("installments", "must be positive, got %d", p.Installments)
	}
	if !p.CorrectionIndex.Valid() {
		return invalid("correctionIndex", "must be INCC, IPCA or empty")
	}
	if _, err := datetime.ParseDate(p.FirstInstallmentDate); err != nil {
		return invalid("firstInstallmentDate", "%v", err)
	}
	if p.ContractDate != "" {
		if _, err := datetime.ParseDate(p.ContractDate); err != nil {
			return invalid("contractDate", "%v", err)
		}
	}
	return nil
}
