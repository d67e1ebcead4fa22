// Package loans generates Price and MQJS amortization schedules, applies
// monthly monetary correction to matured installments and compares the two
// systems.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/loan-revision/pkg/constants"
	"github.com/iwvelando/loan-revision/pkg/datetime"
	"github.com/iwvelando/loan-revision/pkg/mathutil"
	"go.uber.org/zap"
)

// CalculatePMT returns the annuity payment that amortizes balance over
// remaining periods at the given per-period rate.
func CalculatePMT(rate float64, remaining int, balance float64) float64 {
	if rate == 0 {
		return balance / float64(remaining)
	}
	power := math.Pow(1+rate, float64(remaining))
	return balance * rate * power / (power - 1)
}

// PriceMonthlyRate converts the contract rate to the equivalent compound
// monthly rate.
func PriceMonthlyRate(rate float64, period RatePeriod) float64 {
	if period == RateAnnual {
		return math.Pow(1+rate, 1.0/constants.MonthsPerYear) - 1
	}
	return rate
}

// MQJSMonthlyRate converts the contract rate to the proportional monthly rate
// and caps it at 1% a.m.
func MQJSMonthlyRate(rate float64, period RatePeriod) float64 {
	monthly := proportionalMonthlyRate(rate, period)
	if monthly > constants.MQJSMonthlyRateCap {
		monthly = constants.MQJSMonthlyRateCap
	}
	return monthly
}

// PresentValueFactor is the MQJS simple-interest discount factor of installment n.
func PresentValueFactor(monthlyRate float64, n int) float64 {
	return 1 / (1 + monthlyRate*float64(n))
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// PriceSchedule generates the Price (French) schedule. The payment is
// recomputed on every row from the rounded balance and the remaining term so
// each row rounds exactly like the reference spreadsheet.
func (g *AmortizationScheduleGenerator) PriceSchedule(params LoanParameters) ([]Installment, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	first, err := datetime.ParseDate(params.FirstInstallmentDate)
	if err != nil {
		return nil, err
	}

	rate := PriceMonthlyRate(params.InterestRate, params.RatePeriod)
	balance := mathutil.Round(params.FinancedAmount())
	schedule := make([]Installment, 0, params.Installments)

	for i := 1; i <= params.Installments; i++ {
		remaining := params.Installments - (i - 1)
		payment := CalculatePMT(rate, remaining, balance)
		interest := balance * rate
		amortization := payment - interest

		inst := Installment{
			Number:       i,
			DueDate:      datetime.FormatDate(datetime.AddMonths(first, i-1)),
			Interest:     mathutil.Round(interest),
			Amortization: mathutil.Round(amortization),
			Payment:      mathutil.Round(payment),
		}
		inst.Balance = mathutil.Round(balance - inst.Amortization)
		schedule = append(schedule, inst)
		balance = inst.Balance
	}

	g.logger.Debug(fmt.Sprintf("generated %d Price installments at %.8f a.m.", len(schedule), rate),
		zap.String("op", "loans.PriceSchedule"),
		zap.Float64("financed", params.FinancedAmount()),
		zap.Float64("firstPayment", schedule[0].Payment),
	)
	return schedule, nil
}

// MQJSSchedule generates the simple-interest schedule. The payment is fixed and
// each installment amortizes its present-value share of it; the last
// installment amortizes whatever rounded balance remains so the schedule
// closes at zero, and its interest moves by the same few cents.
func (g *AmortizationScheduleGenerator) MQJSSchedule(params LoanParameters) ([]Installment, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	first, err := datetime.ParseDate(params.FirstInstallmentDate)
	if err != nil {
		return nil, err
	}

	rate := MQJSMonthlyRate(params.InterestRate, params.RatePeriod)
	financed := mathutil.Round(params.FinancedAmount())

	factors := make([]float64, params.Installments)
	factorSum := 0.0
	for i := 1; i <= params.Installments; i++ {
		factors[i-1] = PresentValueFactor(rate, i)
		factorSum += factors[i-1]
	}
	payment := financed / factorSum

	balance := financed
	schedule := make([]Installment, 0, params.Installments)
	for i := 1; i <= params.Installments; i++ {
		amortization := factors[i-1] * payment
		if i == params.Installments {
			amortization = balance
		}
		interest := payment - amortization

		inst := Installment{
			Number:       i,
			DueDate:      datetime.FormatDate(datetime.AddMonths(first, i-1)),
			Interest:     mathutil.Round(interest),
			Amortization: mathutil.Round(amortization),
			Payment:      mathutil.Round(payment),
		}
		inst.Balance = mathutil.Round(balance - inst.Amortization)
		schedule = append(schedule, inst)
		balance = inst.Balance
	}

	if requested := proportionalMonthlyRate(params.InterestRate, params.RatePeriod); rate < requested {
		g.logger.Debug("MQJS monthly rate capped",
			zap.String("op", "loans.MQJSSchedule"),
			zap.Float64("requested", requested),
			zap.Float64("applied", rate),
		)
	}
	g.logger.Debug(fmt.Sprintf("generated %d MQJS installments at %.8f a.m.", len(schedule), rate),
		zap.String("op", "loans.MQJSSchedule"),
		zap.Float64("financed", financed),
		zap.Float64("payment", mathutil.Round(payment)),
	)
	return schedule, nil
}

func proportionalMonthlyRate(rate float64, period RatePeriod) float64 {
	if period == RateAnnual {
		return rate / constants.MonthsPerYear
	}
	return rate
}

// PriceSchedule generates a Price schedule without logging.
func PriceSchedule(params LoanParameters) ([]Installment, error) {
	return NewAmortizationScheduleGenerator(nil).PriceSchedule(params)
}

// MQJSSchedule generates an MQJS schedule without logging.
func MQJSSchedule(params LoanParameters) ([]Installment, error) {
	return NewAmortizationScheduleGenerator(nil).MQJSSchedule(params)
}
