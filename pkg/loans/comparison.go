package loans

import (
	"github.com/iwvelando/loan-revision/pkg/mathutil"
)

// CompareSchedules sums the Price-minus-MQJS difference over the first
// paidCount installments. paidCount is clamped to the shorter schedule; a
// non-positive paidCount compares every installment both schedules share.
// Corrected payments are used wherever a correction was applied.
func CompareSchedules(price, mqjs []CorrectedInstallment, paidCount int) ScheduleComparison {
	overlap := mathutil.MinInt(len(price), len(mqjs))
	n := overlap
	if paidCount > 0 {
		n = mathutil.MinInt(paidCount, overlap)
	}

	comparison := ScheduleComparison{
		PaidCount: n,
		Rows:      make([]ComparisonRow, 0, n),
	}

	total := 0.0
	for i := 0; i < n; i++ {
		p := price[i].EffectivePayment()
		m := mqjs[i].EffectivePayment()

		row := ComparisonRow{
			Number:       price[i].Number,
			DueDate:      price[i].DueDate,
			PricePayment: p,
			MQJSPayment:  m,
		}
		if m != 0 {
			row.Difference = mathutil.Round(p - m)
			row.PercentDifference = mathutil.Round(mathutil.CalculatePercentage(p-m, m))
		}
		total += row.Difference
		comparison.Rows = append(comparison.Rows, row)
	}
	comparison.TotalDifference = mathutil.Round(total)

	if paidCount <= 0 && len(mqjs) > 0 {
		next := mqjs[0]
		comparison.NextInstallment = &next
	} else if paidCount > 0 && paidCount < len(mqjs) {
		next := mqjs[paidCount]
		comparison.NextInstallment = &next
	}

	return comparison
}
