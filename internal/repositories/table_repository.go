package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/database"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/schema"
)

// TableRepository runs DDL and DML against the dynamic tables. Identifiers
// are validated again here and always quoted; values go through parameters.
type TableRepository struct {
	pool *pgxpool.Pool
}

func NewTableRepository(pool *pgxpool.Pool) *TableRepository {
	return &TableRepository{
		pool: pool,
	}
}

// CreateTable creates def and upserts its dropdown options in one
// transaction. An existing table with the same columns is left alone and
// only its options are upserted; created reports whether DDL ran.
// Concurrent creates of one name are serialized on a transaction-scoped
// advisory lock, so the later caller sees the committed table.
func (r *TableRepository) CreateTable(ctx context.Context, def models.TableDefinition) (created bool, err error) {
	ddl, err := schema.CreateTableSQL(def)
	if err != nil {
		return false, err
	}

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", def.Name); err != nil {
			return err
		}

		existing, err := tableColumns(ctx, tx, def.Name)
		if err != nil {
			return err
		}

		if len(existing) > 0 {
			current := schema.UserColumns(existing)
			specs := make([]models.ColumnSpec, len(current))
			for i, col := range current {
				specs[i] = models.ColumnSpec{Name: col.Name, Type: col.Type}
			}
			if !schema.SameColumns(specs, def.Columns) {
				return apperrors.New(apperrors.Conflict, "table %q already exists with different columns", def.Name)
			}
		} else {
			if _, err := tx.Exec(ctx, ddl); err != nil {
				return err
			}
			created = true
		}

		return upsertOptions(ctx, tx, def.Name, def.Options)
	})
	if err != nil {
		return false, database.ClassifyError("create table", err)
	}

	return created, nil
}

// InsertRow inserts one row and returns its id.
func (r *TableRepository) InsertRow(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	if len(columns) != len(values) {
		return 0, fmt.Errorf("insert row: %d columns but %d values", len(columns), len(values))
	}
	quoted, err := quoteAll(append([]string{table}, columns...))
	if err != nil {
		return 0, err
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quoted[0],
		strings.Join(quoted[1:], ", "),
		strings.Join(placeholders, ", "),
		schema.QuoteIdentifier(schema.IDColumn),
	)

	var id int64
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, values...).Scan(&id)
	})
	if err != nil {
		return 0, database.ClassifyError("insert row", err)
	}

	return id, nil
}

// ListSubmissions returns the rows submitted by submitter, newest first.
func (r *TableRepository) ListSubmissions(ctx context.Context, table, submitter string) ([]models.Submission, error) {
	if !schema.ValidIdentifier(table) {
		return nil, invalidTable(table)
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = $1 ORDER BY %s DESC, %s DESC",
		schema.QuoteIdentifier(schema.IDColumn),
		schema.QuoteIdentifier(schema.CreatedAtColumn),
		schema.QuoteIdentifier(table),
		schema.QuoteIdentifier(schema.SubmittedByColumn),
		schema.QuoteIdentifier(schema.CreatedAtColumn),
		schema.QuoteIdentifier(schema.IDColumn),
	)

	rows, err := r.pool.Query(ctx, query, submitter)
	if err != nil {
		return nil, database.ClassifyError("list submissions", err)
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		var s models.Submission
		var createdAt *time.Time
		if err := rows.Scan(&s.RecordID, &createdAt); err != nil {
			return nil, database.ClassifyError("list submissions", err)
		}
		if createdAt != nil {
			s.CreatedAt = *createdAt
		}
		s.Table = table
		submissions = append(submissions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError("list submissions", err)
	}

	return submissions, nil
}

// SelectRows returns the raw values of columns for every row submitted by
// submitter, in insertion order.
func (r *TableRepository) SelectRows(ctx context.Context, table string, columns []string, submitter string) ([][]any, error) {
	quoted, err := quoteAll(append([]string{table}, columns...))
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 ORDER BY %s",
		strings.Join(quoted[1:], ", "),
		quoted[0],
		schema.QuoteIdentifier(schema.SubmittedByColumn),
		schema.QuoteIdentifier(schema.IDColumn),
	)

	rows, err := r.pool.Query(ctx, query, submitter)
	if err != nil {
		return nil, database.ClassifyError("select rows", err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, database.ClassifyError("select rows", err)
		}
		out = append(out, values)
	}

	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError("select rows", err)
	}

	return out, nil
}

func (r *TableRepository) CountRows(ctx context.Context, table, submitter string) (int64, error) {
	if !schema.ValidIdentifier(table) {
		return 0, invalidTable(table)
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1",
		schema.QuoteIdentifier(table),
		schema.QuoteIdentifier(schema.SubmittedByColumn),
	)

	var n int64
	if err := r.pool.QueryRow(ctx, query, submitter).Scan(&n); err != nil {
		return 0, database.ClassifyError("count rows", err)
	}
	return n, nil
}

func quoteAll(names []string) ([]string, error) {
	quoted := make([]string, len(names))
	for i, name := range names {
		if !schema.ValidIdentifier(name) {
			return nil, apperrors.New(apperrors.Validation, "invalid identifier %q", name)
		}
		quoted[i] = schema.QuoteIdentifier(name)
	}
	return quoted, nil
}

func invalidTable(table string) error {
	return apperrors.New(apperrors.Validation, "invalid table name %q", table)
}
