package indexstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/iwvelando/loan-revision/pkg/datetime"
	"github.com/iwvelando/loan-revision/pkg/loans"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidDocument marks import failures caused by the document itself
// rather than the store.
var ErrInvalidDocument = errors.New("invalid index document")

// ImportSummary counts the points written per family.
type ImportSummary struct {
	Daily   map[loans.IndexFamily]int `json:"daily"`
	Monthly map[loans.IndexFamily]int `json:"monthly"`
}

// Total is the number of points written.
func (s ImportSummary) Total() int {
	n := 0
	for _, c := range s.Daily {
		n += c
	}
	for _, c := range s.Monthly {
		n += c
	}
	return n
}

type importRecord struct {
	Date         string      `json:"date"`
	MonthlyIndex json.Number `json:"monthly_index"`
	DailyIndex   json.Number `json:"daily_index"`
	Accumulated  json.Number `json:"accumulated"`
}

type importSeries struct {
	Monthly []importRecord `json:"monthly"`
	Daily   []importRecord `json:"daily"`
}

// Invalidator drops cached copies of daily points that an import rewrote.
type Invalidator interface {
	Invalidate(ctx context.Context, points []loans.IndexDailyPoint) error
}

// Importer loads index documents into a Store.
type Importer struct {
	store       Store
	invalidator Invalidator
	logger      *zap.Logger
}

// NewImporter creates an importer writing to store.
func NewImporter(store Store, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, logger: logger}
}

// WithInvalidator makes every import drop the cached copies of the daily
// points it writes.
func (im *Importer) WithInvalidator(inv Invalidator) *Importer {
	im.invalidator = inv
	return im
}

// ImportFile imports the JSON document at path.
func (im *Importer) ImportFile(ctx context.Context, path string) (ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()
	return im.Import(ctx, f)
}

// Import reads a document keyed by lower-case family name, each holding
// "monthly" and "daily" record lists, and upserts every record. The whole
// document is parsed and validated before anything is written.
func (im *Importer) Import(ctx context.Context, r io.Reader) (ImportSummary, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc map[string]importSeries
	if err := dec.Decode(&doc); err != nil {
		return ImportSummary{}, fmt.Errorf("%w: failed to decode: %w", ErrInvalidDocument, err)
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	summary := ImportSummary{
		Daily:   make(map[loans.IndexFamily]int),
		Monthly: make(map[loans.IndexFamily]int),
	}
	var daily []loans.IndexDailyPoint
	var monthly []loans.IndexMonthlyPoint

	for _, name := range names {
		family, err := loans.ParseIndexFamily(name)
		if err != nil || family == loans.IndexNone {
			return ImportSummary{}, fmt.Errorf("%w: unknown index family %q", ErrInvalidDocument, name)
		}
		series := doc[name]

		for i, rec := range series.Monthly {
			p, err := monthlyPoint(family, rec)
			if err != nil {
				return ImportSummary{}, fmt.Errorf("%w: %s monthly record %d: %v", ErrInvalidDocument, family, i, err)
			}
			monthly = append(monthly, p)
		}
		for i, rec := range series.Daily {
			p, err := dailyPoint(family, rec)
			if err != nil {
				return ImportSummary{}, fmt.Errorf("%w: %s daily record %d: %v", ErrInvalidDocument, family, i, err)
			}
			daily = append(daily, p)
		}
		summary.Monthly[family] = len(series.Monthly)
		summary.Daily[family] = len(series.Daily)
	}

	if err := im.store.UpsertMonthly(ctx, monthly); err != nil {
		return ImportSummary{}, fmt.Errorf("failed to store monthly indices: %w", err)
	}
	if err := im.store.UpsertDaily(ctx, daily); err != nil {
		return ImportSummary{}, fmt.Errorf("failed to store daily indices: %w", err)
	}
	if im.invalidator != nil && len(daily) > 0 {
		if err := im.invalidator.Invalidate(ctx, daily); err != nil {
			im.logger.Error("indices stored but cached copies may be stale",
				zap.String("op", "indexstore.Import"),
				zap.Error(err),
			)
			return ImportSummary{}, err
		}
	}

	for _, family := range loans.IndexFamilies {
		if summary.Daily[family] == 0 && summary.Monthly[family] == 0 {
			continue
		}
		im.logger.Info(fmt.Sprintf("imported %s indices", family),
			zap.String("op", "indexstore.Import"),
			zap.Int("monthly", summary.Monthly[family]),
			zap.Int("daily", summary.Daily[family]),
		)
	}
	return summary, nil
}

func monthlyPoint(family loans.IndexFamily, rec importRecord) (loans.IndexMonthlyPoint, error) {
	if _, err := datetime.ParseDate(rec.Date); err != nil {
		return loans.IndexMonthlyPoint{}, err
	}
	monthly, err := parseNumber("monthly_index", rec.MonthlyIndex)
	if err != nil {
		return loans.IndexMonthlyPoint{}, err
	}
	daily, err := parseNumber("daily_index", rec.DailyIndex)
	if err != nil {
		return loans.IndexMonthlyPoint{}, err
	}
	return loans.IndexMonthlyPoint{Family: family, Date: rec.Date, MonthlyIndex: monthly, DailyIndex: daily}, nil
}

func dailyPoint(family loans.IndexFamily, rec importRecord) (loans.IndexDailyPoint, error) {
	if _, err := datetime.ParseDate(rec.Date); err != nil {
		return loans.IndexDailyPoint{}, err
	}
	daily, err := parseNumber("daily_index", rec.DailyIndex)
	if err != nil {
		return loans.IndexDailyPoint{}, err
	}
	acc, err := parseNumber("accumulated", rec.Accumulated)
	if err != nil {
		return loans.IndexDailyPoint{}, err
	}
	return loans.IndexDailyPoint{Family: family, Date: rec.Date, DailyIndex: daily, Accumulated: acc}, nil
}

func parseNumber(field string, n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Decimal{}, fmt.Errorf("missing %s", field)
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: %w", field, n, err)
	}
	return d, nil
}
