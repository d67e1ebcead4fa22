// Package testutil provides common utility functions for testing.
package testutil

import (
	"sort"

	"github.com/iwvelando/loan-revision/pkg/loans"
	"github.com/shopspring/decimal"
)

// ReferenceLoan is the contract used across the test suites: R$ 300.000,00
// with R$ 60.000,00 down at 14% a.a. over 240 months.
func ReferenceLoan(index loans.IndexFamily) loans.LoanParameters {
	return loans.LoanParameters{
		Price:                300000,
		DownPayment:          60000,
		InterestRate:         0.14,
		RatePeriod:           loans.RateAnnual,
		Installments:         240,
		ContractDate:         "2020-01-10",
		FirstInstallmentDate: "2020-02-10",
		CorrectionIndex:      index,
	}
}

// DailyPoints builds daily index points from a date to accumulated-value map,
// sorted by date. Values are decimal strings and panic when malformed.
func DailyPoints(family loans.IndexFamily, accumulated map[string]string) []loans.IndexDailyPoint {
	points := make([]loans.IndexDailyPoint, 0, len(accumulated))
	for date, acc := range accumulated {
		points = append(points, loans.IndexDailyPoint{
			Family:      family,
			Date:        date,
			DailyIndex:  decimal.Zero,
			Accumulated: decimal.RequireFromString(acc),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// FindInstallment finds an installment by number in a schedule.
// Returns a pointer to the installment if found, nil otherwise.
func FindInstallment(schedule []loans.CorrectedInstallment, number int) *loans.CorrectedInstallment {
	for i := range schedule {
		if schedule[i].Number == number {
			return &schedule[i]
		}
	}
	return nil
}
