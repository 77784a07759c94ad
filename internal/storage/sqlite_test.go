package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"inherit/internal/report"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testReport(scope string, missing ...report.MissingMethod) *report.Report {
	return &report.Report{
		Scope:        scope,
		Policy:       report.PolicyWarn,
		GeneratedAt:  "2026-10-16T09:00:00Z",
		Supertypes:   1,
		Requirements: 1,
		Subtypes:     2,
		Checked:      2,
		Missing:      missing,
	}
}

func TestSQLiteStore_SaveRun_RoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	missing := report.MissingMethod{
		Type:       "fruits.Orange",
		Function:   "cost",
		Expected:   "cost(fruits.Orange, core.Float64)",
		Required:   "cost(fruits.Fruit, core.Float64)",
		DeclaredBy: "fruits.Fruit",
		Doc:        "Price per kilo.",
	}
	rep := testReport("fruits", missing)
	id, err := store.SaveRun(ctx, rep)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	run, err := store.LastRun(ctx, "fruits")
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, rep, run.Report)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.SaveRun(ctx, testReport("fruits", report.MissingMethod{Type: "fruits.Orange", Function: "cost"}))
	require.NoError(t, err)
	_, err = store.SaveRun(ctx, testReport("market"))
	require.NoError(t, err)
	last, err := store.SaveRun(ctx, testReport("fruits"))
	require.NoError(t, err)

	t.Run("Newest first per scope", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, "fruits", 0)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, last, runs[0].ID)
		assert.Empty(t, runs[0].Report.Missing)
		assert.Equal(t, first, runs[1].ID)
		assert.Len(t, runs[1].Report.Missing, 1)
	})

	t.Run("All scopes with limit", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, "", 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "fruits", runs[0].Report.Scope)
		assert.Equal(t, "market", runs[1].Report.Scope)
	})
}

func TestSQLiteStore_LastRun_Empty(t *testing.T) {
	store := openStore(t)
	_, err := store.LastRun(context.Background(), "fruits")
	assert.True(t, errors.Is(err, ErrNoRuns))
}
