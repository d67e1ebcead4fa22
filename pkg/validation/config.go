// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/loan-revision/pkg/datetime"
)

// ValidateContractTimeline warns when the first installment does not fall
// after the contract date. An empty contract date is not checked.
func ValidateContractTimeline(contractDate, firstInstallmentDate string) (string, error) {
	if contractDate == "" {
		return "", nil
	}
	before, err := datetime.DateBeforeDate(contractDate, firstInstallmentDate)
	if err != nil {
		return "", err
	}

	if !before {
		return fmt.Sprintf("first installment (%s) is not after the contract date (%s)",
			firstInstallmentDate, contractDate), nil
	}
	return "", nil
}

// ValidatePaidInstallments warns when the paid count cannot be used as given.
func ValidatePaidInstallments(paid, installments int) []string {
	var warnings []string
	if paid < 0 {
		warnings = append(warnings, fmt.Sprintf("paid installments (%d) is negative; every installment will be compared", paid))
	}
	if paid > installments {
		warnings = append(warnings, fmt.Sprintf("paid installments (%d) exceeds the term (%d); comparison is limited to the term",
			paid, installments))
	}
	return warnings
}
