package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/loan-revision/internal/indexstore"
	"github.com/iwvelando/loan-revision/pkg/loans"
)

// ToLoanParameters converts the loan section into validated loan parameters.
// An empty rate period defaults to annual.
func (loan *Loan) ToLoanParameters() (loans.LoanParameters, error) {
	if loan == nil {
		return loans.LoanParameters{}, fmt.Errorf("no loan configured")
	}

	period := loans.RateAnnual
	if strings.TrimSpace(loan.RatePeriod) != "" {
		p, err := loans.ParseRatePeriod(loan.RatePeriod)
		if err != nil {
			return loans.LoanParameters{}, err
		}
		period = p
	}

	family, err := loans.ParseIndexFamily(loan.CorrectionIndex)
	if err != nil {
		return loans.LoanParameters{}, err
	}

	params := loans.LoanParameters{
		Price:                loan.Price,
		DownPayment:          loan.DownPayment,
		InterestRate:         loan.InterestRate,
		RatePeriod:           period,
		Installments:         loan.Installments,
		ContractDate:         loan.ContractDate,
		FirstInstallmentDate: loan.FirstInstallmentDate,
		CorrectionIndex:      family,
	}
	if err := params.Validate(); err != nil {
		return loans.LoanParameters{}, err
	}
	return params, nil
}

// StoreConfig converts the indices section for indexstore.Open.
func (ic IndicesConfig) StoreConfig() indexstore.Config {
	return indexstore.Config{Driver: ic.Driver, DSN: ic.DSN}
}
