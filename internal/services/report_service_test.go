package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
)

func TestExportTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")
	f.register(t, "bob", "pw2")
	f.createTable(t, "survey",
		models.ColumnSpec{Name: "rating", Type: "integer"},
		models.ColumnSpec{Name: "note", Type: "text"},
	)
	for _, u := range []string{"alice", "bob"} {
		_, err := f.permissions.Grant(ctx, u, "survey", true, true)
		require.NoError(t, err)
	}

	_, err := f.tableSvc.InsertRow(ctx, "survey", "alice", map[string]any{"rating": "4", "note": "clean streets"})
	require.NoError(t, err)
	_, err = f.tableSvc.InsertRow(ctx, "survey", "bob", map[string]any{"rating": "2"})
	require.NoError(t, err)
	_, err = f.tableSvc.InsertRow(ctx, "survey", "alice", map[string]any{})
	require.NoError(t, err)

	block, err := f.reports.ExportTable(ctx, "alice", "survey")
	require.NoError(t, err)
	assert.Equal(t, "survey", block.Table)
	assert.Equal(t, []string{"id", "rating", "note", "created_at", "submitted_by"}, block.Header)
	assert.Equal(t, [][]string{
		{"1", "4", "clean streets", "2025-01-01 08:00:01", "alice"},
		{"3", "", "", "2025-01-01 08:00:03", "alice"},
	}, block.Rows)
}

func TestExportTable_RequiresRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")
	f.createTable(t, "survey", models.ColumnSpec{Name: "rating", Type: "integer"})

	_, err := f.reports.ExportTable(ctx, "alice", "survey")
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))

	_, err = f.permissions.Grant(ctx, "alice", "survey", false, true)
	require.NoError(t, err)
	_, err = f.reports.ExportTable(ctx, "alice", "survey")
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))
}

func TestExportAll_EmptyForNewUser(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw1")

	blocks, err := f.reports.ExportAll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, blocks)
	assert.NotNil(t, blocks)

	summary, err := f.reports.Summary(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestExportAll_OneBlockPerReadableTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")
	f.createTable(t, "visits", models.ColumnSpec{Name: "site", Type: "text"})
	f.createTable(t, "survey", models.ColumnSpec{Name: "rating", Type: "integer"})
	f.createTable(t, "hidden", models.ColumnSpec{Name: "x", Type: "text"})
	for _, tbl := range []string{"visits", "survey"} {
		_, err := f.permissions.Grant(ctx, "alice", tbl, true, true)
		require.NoError(t, err)
	}
	_, err := f.tableSvc.InsertRow(ctx, "visits", "alice", map[string]any{"site": "Fasil Ghebbi"})
	require.NoError(t, err)

	blocks, err := f.reports.ExportAll(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "survey", blocks[0].Table)
	assert.Empty(t, blocks[0].Rows)
	assert.Equal(t, "visits", blocks[1].Table)
	assert.Len(t, blocks[1].Rows, 1)

	summary, err := f.reports.Summary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.SummaryRow{{Table: "survey", Count: 0}, {Table: "visits", Count: 1}}, summary)
}

func TestStringify(t *testing.T) {
	ts := time.Date(2025, 3, 9, 14, 5, 6, 0, time.UTC)

	assert.Equal(t, "", stringify(nil, "text"))
	assert.Equal(t, "abc", stringify("abc", "text"))
	assert.Equal(t, "abc", stringify([]byte("abc"), "text"))
	assert.Equal(t, "2025-03-09 14:05:06", stringify(ts, "timestamp"))
	assert.Equal(t, "2025-03-09", stringify(ts, "date"))
	assert.Equal(t, "true", stringify(true, "boolean"))
	assert.Equal(t, "12.5", stringify(12.5, "double precision"))
	assert.Equal(t, "42", stringify(int64(42), "bigint"))
}
