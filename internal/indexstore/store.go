// Package indexstore persists monetary-correction index series and serves
// the daily lookups the correction engine needs.
package indexstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/iwvelando/loan-revision/pkg/constants"
	"github.com/iwvelando/loan-revision/pkg/loans"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown index store driver")

// Store is the full index repository: daily lookups for the correction
// engine plus the monthly series and the write side used by imports.
type Store interface {
	loans.IndexLookup
	MonthlyIndex(ctx context.Context, family loans.IndexFamily, date string) (loans.IndexMonthlyPoint, bool, error)
	UpsertDaily(ctx context.Context, points []loans.IndexDailyPoint) error
	UpsertMonthly(ctx context.Context, points []loans.IndexMonthlyPoint) error
	Close() error
}

// Config selects and locates the backing store.
type Config struct {
	Driver string
	DSN    string
}

// Open returns the store named by cfg.Driver. An empty driver means memory.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", constants.IndexDriverMemory:
		return NewMemory(), nil
	case constants.IndexDriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = constants.DefaultIndexDSN
		}
		return NewSQLite(dsn)
	case constants.IndexDriverPostgres:
		return NewPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
