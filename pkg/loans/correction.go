package loans

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/loan-revision/pkg/datetime"
	"github.com/iwvelando/loan-revision/pkg/mathutil"
	"go.uber.org/zap"
)

// IndexLookup reads accumulated index values. A missing point is reported
// with found == false and a nil error; a non-nil error means the store itself
// failed.
type IndexLookup interface {
	DailyIndex(ctx context.Context, family IndexFamily, date string) (point IndexDailyPoint, found bool, err error)
}

// CorrectionEngine applies monthly-accumulated monetary correction to the
// matured installments of a schedule.
type CorrectionEngine struct {
	lookup IndexLookup
	logger *zap.Logger
}

// NewCorrectionEngine creates a correction engine backed by lookup.
func NewCorrectionEngine(lookup IndexLookup, logger *zap.Logger) *CorrectionEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorrectionEngine{lookup: lookup, logger: logger}
}

// ApplyCorrection corrects the schedule as of the current time.
func (e *CorrectionEngine) ApplyCorrection(ctx context.Context, schedule []Installment, family IndexFamily) ([]CorrectedInstallment, error) {
	return e.ApplyCorrectionWithFixedTime(ctx, schedule, family, time.Now())
}

// ApplyCorrectionWithFixedTime corrects the schedule treating now as the
// current time. Installments are visited in order and their two index lookups
// are issued sequentially because the running percentage depends on every
// earlier month. A month whose lookups miss contributes nothing and leaves the
// running percentage where it was.
func (e *CorrectionEngine) ApplyCorrectionWithFixedTime(ctx context.Context, schedule []Installment, family IndexFamily, now time.Time) ([]CorrectedInstallment, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("invalid correction index %d", int(family))
	}
	if family == IndexNone {
		return Uncorrected(schedule), nil
	}
	if e.lookup == nil {
		return nil, fmt.Errorf("correction by %s requested without an index store", family)
	}

	today := datetime.Today(now)
	accumulated := 0.0
	corrected := make([]CorrectedInstallment, 0, len(schedule))

	for _, inst := range schedule {
		due, err := datetime.ParseDate(inst.DueDate)
		if err != nil {
			return nil, fmt.Errorf("installment %d: %w", inst.Number, err)
		}

		out := CorrectedInstallment{
			Installment: inst,
			Index:       family,
			Matured:     due.Before(today),
		}
		if !out.Matured {
			corrected = append(corrected, out)
			continue
		}

		endDate := datetime.FormatDate(datetime.LastDayOfMonth(due))
		startDate := datetime.FormatDate(datetime.LastDayOfPreviousMonth(due))

		end, endFound, err := e.lookup.DailyIndex(ctx, family, endDate)
		if err != nil {
			return nil, fmt.Errorf("installment %d: looking up %s on %s: %w", inst.Number, family, endDate, err)
		}
		start, startFound, err := e.lookup.DailyIndex(ctx, family, startDate)
		if err != nil {
			return nil, fmt.Errorf("installment %d: looking up %s on %s: %w", inst.Number, family, startDate, err)
		}

		accEnd := end.Accumulated.InexactFloat64()
		accStart := start.Accumulated.InexactFloat64()
		if !endFound || !startFound || accStart == 0 {
			e.logger.Debug(fmt.Sprintf("installment %d left uncorrected: no %s data for %s/%s",
				inst.Number, family, startDate, endDate),
				zap.String("op", "loans.ApplyCorrection"),
				zap.Bool("startFound", startFound),
				zap.Bool("endFound", endFound),
			)
			corrected = append(corrected, out)
			continue
		}

		accumulated += accEnd/accStart - 1
		out.Correction = correct(inst, accEnd, accumulated)
		corrected = append(corrected, out)
	}

	return corrected, nil
}

// correct applies the running percentage to one installment. The currency
// amount of the correction is rounded before it is added to the payment.
func correct(inst Installment, accumulatedIndex, accumulated float64) *Correction {
	return &Correction{
		AccumulatedIndex:   accumulatedIndex,
		AccumulatedPercent: accumulated,
		Value:              mathutil.Round(accumulated * 100),
		Payment:            mathutil.Round(inst.Payment + mathutil.Round(inst.Payment*accumulated)),
		Interest:           mathutil.Round(inst.Interest * (1 + accumulated)),
		Amortization:       mathutil.Round(inst.Amortization * (1 + accumulated)),
	}
}

// ApplyCorrection corrects schedule against lookup as of the current time without logging.
func ApplyCorrection(ctx context.Context, lookup IndexLookup, schedule []Installment, family IndexFamily) ([]CorrectedInstallment, error) {
	return NewCorrectionEngine(lookup, nil).ApplyCorrection(ctx, schedule, family)
}
