package indexstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/loan-revision/pkg/loans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "incc": {
    "monthly": [
      {"date": "2024-01-01", "monthly_index": 0.27, "daily_index": 0.0000871}
    ],
    "daily": [
      {"date": "2023-12-31", "daily_index": 0.0000871, "accumulated": 1.000000000001},
      {"date": "2024-01-31", "daily_index": "0.0000871", "accumulated": "1.0027"}
    ]
  },
  "ipca": {
    "monthly": [],
    "daily": [
      {"date": "2024-01-31", "daily_index": 0.0001357, "accumulated": 1.0042}
    ]
  }
}`

func TestImport(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	summary, err := NewImporter(store, nil).Import(ctx, strings.NewReader(sampleDocument))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Daily[loans.IndexINCC])
	assert.Equal(t, 1, summary.Monthly[loans.IndexINCC])
	assert.Equal(t, 1, summary.Daily[loans.IndexIPCA])
	assert.Equal(t, 4, summary.Total())

	got, found, err := store.DailyIndex(ctx, loans.IndexINCC, "2023-12-31")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1.000000000001", got.Accumulated.String())

	got, found, err = store.DailyIndex(ctx, loans.IndexINCC, "2024-01-31")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1.0027", got.Accumulated.String())

	m, found, err := store.MonthlyIndex(ctx, loans.IndexINCC, "2024-01-01")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "0.27", m.MonthlyIndex.String())
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()

	im := NewImporter(store, nil)
	_, err = im.Import(ctx, strings.NewReader(sampleDocument))
	require.NoError(t, err)
	_, err = im.Import(ctx, strings.NewReader(sampleDocument))
	require.NoError(t, err)

	got, found, err := store.DailyIndex(ctx, loans.IndexIPCA, "2024-01-31")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1.0042", got.Accumulated.String())
}

func TestImportRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"not json", `{`, "decode"},
		{"unknown family", `{"igpm": {"monthly": [], "daily": []}}`, "unknown index family"},
		{"bad date", `{"incc": {"daily": [{"date": "31/01/2024", "daily_index": 1, "accumulated": 1}]}}`, "invalid date"},
		{"missing accumulated", `{"incc": {"daily": [{"date": "2024-01-31", "daily_index": 1}]}}`, "missing accumulated"},
		{"bad number", `{"ipca": {"monthly": [{"date": "2024-01-01", "monthly_index": "abc", "daily_index": 1}]}}`, "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemory()
			_, err := NewImporter(store, nil).Import(context.Background(), strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, ErrInvalidDocument))
			assert.Empty(t, store.daily)
			assert.Empty(t, store.monthly)
		})
	}
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indices.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o600))

	store := NewMemory()
	summary, err := NewImporter(store, nil).ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total())

	_, err = NewImporter(store, nil).ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
