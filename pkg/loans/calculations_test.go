package loans

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func referenceParams() LoanParameters {
	return LoanParameters{
		Price:                300000,
		DownPayment:          60000,
		InterestRate:         0.14,
		RatePeriod:           RateAnnual,
		Installments:         240,
		ContractDate:         "2020-01-10",
		FirstInstallmentDate: "2020-02-10",
	}
}

func TestCalculatePMT(t *testing.T) {
	tests := []struct {
		name      string
		rate      float64
		remaining int
		balance   float64
		expected  float64
	}{
		{"Zero rate splits evenly", 0, 10, 1000, 100},
		{"One percent over a year", 0.01, 12, 10000, 888.49},
		{"Single period pays balance plus interest", 0.01, 1, 1000, 1010},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculatePMT(tt.rate, tt.remaining, tt.balance), 0.005)
		})
	}
}

func TestMonthlyRates(t *testing.T) {
	t.Run("Price converts annual rates by compounding", func(t *testing.T) {
		rate := PriceMonthlyRate(0.14, RateAnnual)
		assert.InDelta(t, 0.010979, rate, 0.000001)
		assert.InDelta(t, 0.14, math.Pow(1+rate, 12)-1, 1e-12)
	})

	t.Run("Price keeps monthly rates", func(t *testing.T) {
		assert.Equal(t, 0.009, PriceMonthlyRate(0.009, RateMonthly))
	})

	tests := []struct {
		name     string
		rate     float64
		period   RatePeriod
		expected float64
	}{
		{"MQJS divides annual rates", 0.06, RateAnnual, 0.005},
		{"MQJS caps 20% a.a. at 1% a.m.", 0.20, RateAnnual, 0.01},
		{"MQJS caps 14% a.a. at 1% a.m.", 0.14, RateAnnual, 0.01},
		{"MQJS caps monthly rates", 0.015, RateMonthly, 0.01},
		{"MQJS keeps monthly rates under the cap", 0.006, RateMonthly, 0.006},
		{"MQJS keeps exactly 1%", 0.01, RateMonthly, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MQJSMonthlyRate(tt.rate, tt.period))
		})
	}
}

func TestPresentValueFactorIsSimpleInterest(t *testing.T) {
	assert.InDelta(t, 1/1.12, PresentValueFactor(0.01, 12), 1e-15)
	assert.Equal(t, 1.0, PresentValueFactor(0, 100))
}

func TestReferenceScheduleFirstInstallment(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(zap.NewNop())
	params := referenceParams()

	price, err := generator.PriceSchedule(params)
	require.NoError(t, err)
	mqjs, err := generator.MQJSSchedule(params)
	require.NoError(t, err)

	require.Len(t, price, 240)
	require.Len(t, mqjs, 240)

	rate := math.Pow(1.14, 1.0/12) - 1
	power := math.Pow(1+rate, 240)
	expected := math.Round(240000*rate*power/(power-1)*100) / 100

	assert.Equal(t, expected, price[0].Payment)
	assert.InDelta(t, 2841.69, price[0].Payment, 0.5)
	assert.Equal(t, math.Round(240000*rate*100)/100, price[0].Interest)
	assert.Equal(t, "2020-02-10", price[0].DueDate)

	assert.InDelta(t, 1966.80, mqjs[0].Payment, 0.5)
	assert.NotEqual(t, price[0].Payment, mqjs[0].Payment)
	assert.InDelta(t, 19.47, mqjs[0].Interest, 0.05)
}

func TestSchedulesCloseAtZero(t *testing.T) {
	cases := []LoanParameters{
		referenceParams(),
		{Price: 500000, DownPayment: 100000, InterestRate: 0.0095, RatePeriod: RateMonthly, Installments: 360, FirstInstallmentDate: "2019-07-31"},
		{Price: 180000.55, DownPayment: 36000.10, InterestRate: 0.09, RatePeriod: RateAnnual, Installments: 96, FirstInstallmentDate: "2021-01-31"},
		{Price: 12000, DownPayment: 0, InterestRate: 0.02, RatePeriod: RateMonthly, Installments: 12, FirstInstallmentDate: "2024-02-29"},
		{Price: 90000, DownPayment: 10000, InterestRate: 0.12, RatePeriod: RateAnnual, Installments: 1, FirstInstallmentDate: "2024-05-05"},
	}

	generators := map[string]func(LoanParameters) ([]Installment, error){
		"price": PriceSchedule,
		"mqjs":  MQJSSchedule,
	}

	for name, generate := range generators {
		for _, params := range cases {
			t.Run(name, func(t *testing.T) {
				schedule, err := generate(params)
				require.NoError(t, err)
				require.Len(t, schedule, params.Installments)

				financed := math.Round(params.FinancedAmount()*100) / 100
				previous := financed
				sum := 0.0
				for i, inst := range schedule {
					assert.Equal(t, i+1, inst.Number)
					assert.InDelta(t, inst.Payment, inst.Interest+inst.Amortization, 0.01+1e-9,
						"installment %d: payment must equal interest plus amortization", inst.Number)
					assert.InDelta(t, previous-inst.Amortization, inst.Balance, 1e-6,
						"installment %d: balance must drop by the amortization", inst.Number)
					previous = inst.Balance
					sum += inst.Amortization
				}
				assert.InDelta(t, financed, sum, 0.01)
				assert.InDelta(t, 0, schedule[len(schedule)-1].Balance, 0.01)
			})
		}
	}
}

func TestMQJSPaymentIsFixed(t *testing.T) {
	schedule, err := MQJSSchedule(referenceParams())
	require.NoError(t, err)

	for _, inst := range schedule {
		assert.Equal(t, schedule[0].Payment, inst.Payment)
	}
	// Interest shrinks as the present-value share of each payment falls.
	assert.Greater(t, schedule[len(schedule)-1].Interest, schedule[0].Interest)
}

func TestMQJSLastInstallmentAbsorbsRounding(t *testing.T) {
	for _, installments := range []int{240, 360} {
		params := referenceParams()
		params.Installments = installments

		schedule, err := MQJSSchedule(params)
		require.NoError(t, err)

		last := schedule[len(schedule)-1]
		previous := schedule[len(schedule)-2]
		assert.Equal(t, previous.Balance, last.Amortization, "%d installments", installments)
		assert.Zero(t, last.Balance)
		assert.InDelta(t, last.Payment, last.Interest+last.Amortization, 0.01)

		rate := MQJSMonthlyRate(params.InterestRate, params.RatePeriod)
		factorSum := 0.0
		for i := 1; i <= installments; i++ {
			factorSum += PresentValueFactor(rate, i)
		}
		formula := PresentValueFactor(rate, installments) * params.FinancedAmount() / factorSum
		assert.InDelta(t, formula, last.Amortization, 0.10,
			"closing amortization should only differ from the factor share by rounding")
	}
}

func TestMQJSRateCapAffectsSchedule(t *testing.T) {
	capped := referenceParams()
	capped.InterestRate = 0.20

	atCap := referenceParams()
	atCap.InterestRate = 0.01
	atCap.RatePeriod = RateMonthly

	a, err := MQJSSchedule(capped)
	require.NoError(t, err)
	b, err := MQJSSchedule(atCap)
	require.NoError(t, err)

	assert.Equal(t, b, a)
}

func TestPricePaymentRecomputedEachRow(t *testing.T) {
	schedule, err := PriceSchedule(referenceParams())
	require.NoError(t, err)

	for _, inst := range schedule {
		assert.InDelta(t, schedule[0].Payment, inst.Payment, 0.10,
			"installment %d drifted from the annuity payment", inst.Number)
	}
	assert.Greater(t, schedule[0].Interest, schedule[len(schedule)-1].Interest)
}

func TestDueDatesFollowCalendarMonths(t *testing.T) {
	params := LoanParameters{
		Price: 10000, DownPayment: 1000, InterestRate: 0.01, RatePeriod: RateMonthly,
		Installments: 4, FirstInstallmentDate: "2023-01-31",
	}
	schedule, err := PriceSchedule(params)
	require.NoError(t, err)

	var dates []string
	for _, inst := range schedule {
		dates = append(dates, inst.DueDate)
	}
	assert.Equal(t, []string{"2023-01-31", "2023-03-03", "2023-03-31", "2023-05-01"}, dates)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LoanParameters)
		field  string
	}{
		{"Zero price", func(p *LoanParameters) { p.Price = 0 }, "price"},
		{"Negative price", func(p *LoanParameters) { p.Price = -1 }, "price"},
		{"Negative down payment", func(p *LoanParameters) { p.DownPayment = -5 }, "downPayment"},
		{"Down payment equals price", func(p *LoanParameters) { p.DownPayment = p.Price }, "downPayment"},
		{"Down payment above price", func(p *LoanParameters) { p.DownPayment = p.Price + 1 }, "downPayment"},
		{"Zero rate", func(p *LoanParameters) { p.InterestRate = 0 }, "interestRate"},
		{"Missing rate period", func(p *LoanParameters) { p.RatePeriod = 0 }, "ratePeriod"},
		{"Zero installments", func(p *LoanParameters) { p.Installments = 0 }, "installments"},
		{"Negative installments", func(p *LoanParameters) { p.Installments = -12 }, "installments"},
		{"Unknown index", func(p *LoanParameters) { p.CorrectionIndex = IndexFamily(9) }, "correctionIndex"},
		{"Bad first date", func(p *LoanParameters) { p.FirstInstallmentDate = "10/02/2020" }, "firstInstallmentDate"},
		{"Bad contract date", func(p *LoanParameters) { p.ContractDate = "2020-13-01" }, "contractDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := referenceParams()
			tt.mutate(&params)

			for _, generate := range []func(LoanParameters) ([]Installment, error){PriceSchedule, MQJSSchedule} {
				schedule, err := generate(params)
				require.Error(t, err)
				assert.Nil(t, schedule)
				assert.True(t, errors.Is(err, ErrInvalidParameters))

				var vErr *ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, tt.field, vErr.Field)
			}
		})
	}
}

func TestValidationAcceptsMissingContractDate(t *testing.T) {
	params := referenceParams()
	params.ContractDate = ""
	assert.NoError(t, params.Validate())
}
