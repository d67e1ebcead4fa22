package indexstore

import (
	"context"
	"errors"
	"testing"

	"github.com/iwvelando/loan-revision/pkg/loans"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func dailyPointFor(family loans.IndexFamily, date, acc string) loans.IndexDailyPoint {
	return loans.IndexDailyPoint{
		Family:      family,
		Date:        date,
		DailyIndex:  decimal.RequireFromString("0.000123"),
		Accumulated: decimal.RequireFromString(acc),
	}
}

func TestStoreDailyRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.UpsertDaily(ctx, []loans.IndexDailyPoint{
				dailyPointFor(loans.IndexINCC, "2024-01-31", "1.0123456789"),
				dailyPointFor(loans.IndexIPCA, "2024-01-31", "1.5"),
			}))

			got, found, err := store.DailyIndex(ctx, loans.IndexINCC, "2024-01-31")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "1.0123456789", got.Accumulated.String())
			assert.Equal(t, loans.IndexINCC, got.Family)
			assert.Equal(t, "2024-01-31", got.Date)

			_, found, err = store.DailyIndex(ctx, loans.IndexINCC, "2024-02-29")
			require.NoError(t, err)
			assert.False(t, found)

			other, found, err := store.DailyIndex(ctx, loans.IndexIPCA, "2024-01-31")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "1.5", other.Accumulated.String())
		})
	}
}

func TestStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.UpsertDaily(ctx, []loans.IndexDailyPoint{dailyPointFor(loans.IndexINCC, "2024-03-31", "1.1")}))
			require.NoError(t, store.UpsertDaily(ctx, []loans.IndexDailyPoint{dailyPointFor(loans.IndexINCC, "2024-03-31", "1.2")}))

			got, found, err := store.DailyIndex(ctx, loans.IndexINCC, "2024-03-31")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "1.2", got.Accumulated.String())
		})
	}
}

func TestStoreMonthly(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.UpsertMonthly(ctx, []loans.IndexMonthlyPoint{{
				Family:       loans.IndexIPCA,
				Date:         "2024-05-01",
				MonthlyIndex: decimal.RequireFromString("0.46"),
				DailyIndex:   decimal.RequireFromString("0.000149"),
			}}))

			got, found, err := store.MonthlyIndex(ctx, loans.IndexIPCA, "2024-05-01")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "0.46", got.MonthlyIndex.String())
			assert.Equal(t, "0.000149", got.DailyIndex.String())

			_, found, err = store.MonthlyIndex(ctx, loans.IndexINCC, "2024-05-01")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestStoreEmptyUpsert(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, store.UpsertDaily(context.Background(), nil))
			assert.NoError(t, store.UpsertMonthly(context.Background(), nil))
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(Config{Driver: "mysql"})
	assert.True(t, errors.Is(err, ErrUnknownDriver))

	_, err = Open(Config{Driver: "postgres"})
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: dialectPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &SQLStore{dialect: dialectSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{":memory:", ":memory:?_journal_mode=WAL&_busy_timeout=5000"},
		{"indices.db", "indices.db?_journal_mode=WAL&_busy_timeout=5000"},
		{"file:x.db?cache=shared", "file:x.db?cache=shared&_journal_mode=WAL&_busy_timeout=5000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.path))
	}

	s, err := NewSQLite("file:dsn_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
