// Package revision runs the full contract revision: both amortization
// systems, monetary correction and the comparison between them.
package revision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-revision/pkg/loans"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// System names an amortization system.
type System string

const (
	SystemPrice System = "price"
	SystemMQJS  System = "mqjs"
)

// Result is the outcome of one revision run.
type Result struct {
	RunID       string                       `json:"runId"`
	GeneratedAt time.Time                    `json:"generatedAt"`
	Parameters  loans.LoanParameters         `json:"parameters"`
	Price       []loans.CorrectedInstallment `json:"price"`
	MQJS        []loans.CorrectedInstallment `json:"mqjs"`
	Comparison  loans.ScheduleComparison     `json:"comparison"`
}

// Service wires schedule generation to the correction engine.
type Service struct {
	generator *loans.AmortizationScheduleGenerator
	engine    *loans.CorrectionEngine
	logger    *zap.Logger
}

// NewService creates a service reading index values from lookup. lookup may
// be nil when only uncorrected contracts are revised.
func NewService(lookup loans.IndexLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		generator: loans.NewAmortizationScheduleGenerator(logger),
		engine:    loans.NewCorrectionEngine(lookup, logger),
		logger:    logger,
	}
}

// Calculate revises the contract as of the current time.
func (s *Service) Calculate(ctx context.Context, params loans.LoanParameters, paidCount int) (*Result, error) {
	return s.CalculateWithFixedTime(ctx, params, paidCount, time.Now())
}

// CalculateWithFixedTime runs the Price and MQJS pipelines concurrently and
// compares their first paidCount installments. Either pipeline failing fails
// the run.
func (s *Service) CalculateWithFixedTime(ctx context.Context, params loans.LoanParameters, paidCount int, now time.Time) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:       uuid.NewString(),
		GeneratedAt: now.UTC(),
		Parameters:  params,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result.Price, err = s.pipeline(gctx, SystemPrice, params, now)
		return err
	})
	g.Go(func() error {
		var err error
		result.MQJS, err = s.pipeline(gctx, SystemMQJS, params, now)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("revision failed",
			zap.String("op", "revision.Calculate"),
			zap.String("runId", result.RunID),
			zap.Error(err),
		)
		return nil, err
	}

	result.Comparison = loans.CompareSchedules(result.Price, result.MQJS, paidCount)

	s.logger.Info(fmt.Sprintf("revision %s: %d installments compared", result.RunID, result.Comparison.PaidCount),
		zap.String("op", "revision.Calculate"),
		zap.Float64("financed", params.FinancedAmount()),
		zap.String("index", params.CorrectionIndex.String()),
		zap.Float64("totalDifference", result.Comparison.TotalDifference),
	)
	return result, nil
}

// Price returns the corrected Price schedule.
func (s *Service) Price(ctx context.Context, params loans.LoanParameters) ([]loans.CorrectedInstallment, error) {
	return s.pipeline(ctx, SystemPrice, params, time.Now())
}

// MQJS returns the corrected MQJS schedule.
func (s *Service) MQJS(ctx context.Context, params loans.LoanParameters) ([]loans.CorrectedInstallment, error) {
	return s.pipeline(ctx, SystemMQJS, params, time.Now())
}

func (s *Service) pipeline(ctx context.Context, system System, params loans.LoanParameters, now time.Time) ([]loans.CorrectedInstallment, error) {
	var (
		schedule []loans.Installment
		err      error
	)
	switch system {
	case SystemPrice:
		schedule, err = s.generator.PriceSchedule(params)
	case SystemMQJS:
		schedule, err = s.generator.MQJSSchedule(params)
	default:
		return nil, fmt.Errorf("unknown amortization system %q", system)
	}
	if err != nil {
		return nil, err
	}

	corrected, err := s.engine.ApplyCorrectionWithFixedTime(ctx, schedule, params.CorrectionIndex, now)
	if err != nil {
		return nil, fmt.Errorf("%s correction: %w", system, err)
	}
	return corrected, nil
}
