package indexstore

import (
	"context"
	"sync"

	"github.com/iwvelando/loan-revision/pkg/loans"
)

type pointKey struct {
	family loans.IndexFamily
	date   string
}

// Memory keeps index points in maps. Used by tests and when no database is
// configured.
type Memory struct {
	mu      sync.RWMutex
	daily   map[pointKey]loans.IndexDailyPoint
	monthly map[pointKey]loans.IndexMonthlyPoint
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		daily:   make(map[pointKey]loans.IndexDailyPoint),
		monthly: make(map[pointKey]loans.IndexMonthlyPoint),
	}
}

// DailyIndex implements loans.IndexLookup.
func (m *Memory) DailyIndex(_ context.Context, family loans.IndexFamily, date string) (loans.IndexDailyPoint, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.daily[pointKey{family, date}]
	return p, ok, nil
}

// MonthlyIndex returns the monthly point dated date.
func (m *Memory) MonthlyIndex(_ context.Context, family loans.IndexFamily, date string) (loans.IndexMonthlyPoint, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.monthly[pointKey{family, date}]
	return p, ok, nil
}

// UpsertDaily inserts or replaces daily points.
func (m *Memory) UpsertDaily(_ context.Context, points []loans.IndexDailyPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		m.daily[pointKey{p.Family, p.Date}] = p
	}
	return nil
}

// UpsertMonthly inserts or replaces monthly points.
func (m *Memory) UpsertMonthly(_ context.Context, points []loans.IndexMonthlyPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		m.monthly[pointKey{p.Family, p.Date}] = p
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
