package indexstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/loan-revision/pkg/loans"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore keeps the index series in daily_indices and monthly_indices.
// Index values are stored as decimal text so imports round-trip exactly.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLite opens (and migrates) a SQLite store. Use ":memory:" for an
// in-memory database.
func NewSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)
	return newSQLStore(db, dialectSQLite)
}

// sqliteDSN appends the WAL and busy-timeout options to path, keeping any
// query string already present.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_busy_timeout=5000"
}

// NewPostgres opens (and migrates) a PostgreSQL store.
func NewPostgres(dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres index store requires a DSN")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return newSQLStore(db, dialectPostgres)
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	timestamp := "TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP"
	if s.dialect == dialectPostgres {
		timestamp = "TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS daily_indices (
			index_type TEXT NOT NULL,
			date TEXT NOT NULL,
			daily_index TEXT NOT NULL,
			accumulated TEXT NOT NULL,
			updated_at ` + timestamp + `,
			PRIMARY KEY (index_type, date)
		)`,
		`CREATE TABLE IF NOT EXISTS monthly_indices (
			index_type TEXT NOT NULL,
			date TEXT NOT NULL,
			monthly_index TEXT NOT NULL,
			daily_index TEXT NOT NULL,
			updated_at ` + timestamp + `,
			PRIMARY KEY (index_type, date)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DailyIndex implements loans.IndexLookup.
func (s *SQLStore) DailyIndex(ctx context.Context, family loans.IndexFamily, date string) (loans.IndexDailyPoint, bool, error) {
	var daily, accumulated string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT daily_index, accumulated FROM daily_indices WHERE index_type = ? AND date = ?`),
		family.String(), date,
	).Scan(&daily, &accumulated)
	if errors.Is(err, sql.ErrNoRows) {
		return loans.IndexDailyPoint{}, false, nil
	}
	if err != nil {
		return loans.IndexDailyPoint{}, false, fmt.Errorf("failed to query daily index: %w", err)
	}

	point := loans.IndexDailyPoint{Family: family, Date: date}
	if point.DailyIndex, err = decimal.NewFromString(daily); err != nil {
		return loans.IndexDailyPoint{}, false, fmt.Errorf("corrupt daily_index for %s %s: %w", family, date, err)
	}
	if point.Accumulated, err = decimal.NewFromString(accumulated); err != nil {
		return loans.IndexDailyPoint{}, false, fmt.Errorf("corrupt accumulated for %s %s: %w", family, date, err)
	}
	return point, true, nil
}

// MonthlyIndex returns the monthly point dated date.
func (s *SQLStore) MonthlyIndex(ctx context.Context, family loans.IndexFamily, date string) (loans.IndexMonthlyPoint, bool, error) {
	var monthly, daily string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT monthly_index, daily_index FROM monthly_indices WHERE index_type = ? AND date = ?`),
		family.String(), date,
	).Scan(&monthly, &daily)
	if errors.Is(err, sql.ErrNoRows) {
		return loans.IndexMonthlyPoint{}, false, nil
	}
	if err != nil {
		return loans.IndexMonthlyPoint{}, false, fmt.Errorf("failed to query monthly index: %w", err)
	}

	point := loans.IndexMonthlyPoint{Family: family, Date: date}
	if point.MonthlyIndex, err = decimal.NewFromString(monthly); err != nil {
		return loans.IndexMonthlyPoint{}, false, fmt.Errorf("corrupt monthly_index for %s %s: %w", family, date, err)
	}
	if point.DailyIndex, err = decimal.NewFromString(daily); err != nil {
		return loans.IndexMonthlyPoint{}, false, fmt.Errorf("corrupt daily_index for %s %s: %w", family, date, err)
	}
	return point, true, nil
}

// UpsertDaily inserts or replaces daily points in one transaction.
func (s *SQLStore) UpsertDaily(ctx context.Context, points []loans.IndexDailyPoint) error {
	return s.inTx(ctx, s.rebind(`
		INSERT INTO daily_indices (index_type, date, daily_index, accumulated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (index_type, date) DO UPDATE SET
			daily_index = excluded.daily_index,
			accumulated = excluded.accumulated,
			updated_at = CURRENT_TIMESTAMP`),
		len(points), func(i int) []interface{} {
			p := points[i]
			return []interface{}{p.Family.String(), p.Date, p.DailyIndex.String(), p.Accumulated.String()}
		})
}

// UpsertMonthly inserts or replaces monthly points in one transaction.
func (s *SQLStore) UpsertMonthly(ctx context.Context, points []loans.IndexMonthlyPoint) error {
	return s.inTx(ctx, s.rebind(`
		INSERT INTO monthly_indices (index_type, date, monthly_index, daily_index)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (index_type, date) DO UPDATE SET
			monthly_index = excluded.monthly_index,
			daily_index = excluded.daily_index,
			updated_at = CURRENT_TIMESTAMP`),
		len(points), func(i int) []interface{} {
			p := points[i]
			return []interface{}{p.Family.String(), p.Date, p.MonthlyIndex.String(), p.DailyIndex.String()}
		})
}

func (s *SQLStore) inTx(ctx context.Context, query string, n int, args func(i int) []interface{}) error {
	if n == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("failed to upsert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}
