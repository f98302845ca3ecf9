package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/database"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/schema"
)

// SchemaRepository reads table metadata from information_schema, so the
// store remains the only record of which dynamic tables exist.
type SchemaRepository struct {
	pool *pgxpool.Pool
}

func NewSchemaRepository(pool *pgxpool.Pool) *SchemaRepository {
	return &SchemaRepository{pool: pool}
}

func (r *SchemaRepository) TableExists(ctx context.Context, table string) (bool, error) {
	return tableExists(ctx, r.pool, table)
}

// ListTables returns the dynamic tables of the current schema, system tables excluded.
func (r *SchemaRepository) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		AND table_type = 'BASE TABLE'
		AND NOT (table_name = ANY($1))
		ORDER BY table_name
	`

	rows, err := r.pool.Query(ctx, query, schema.SystemTables())
	if err != nil {
		return nil, database.ClassifyError("list tables", err)
	}

	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, database.ClassifyError("list tables", err)
	}
	return tables, nil
}

// Columns returns every column of table, system columns included, in ordinal order.
func (r *SchemaRepository) Columns(ctx context.Context, table string) ([]models.Column, error) {
	return tableColumns(ctx, r.pool, table)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func tableExists(ctx context.Context, q querier, table string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, table).Scan(&exists); err != nil {
		return false, database.ClassifyError("check table", err)
	}
	return exists, nil
}

func tableColumns(ctx context.Context, q querier, table string) ([]models.Column, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := q.Query(ctx, query, table)
	if err != nil {
		return nil, database.ClassifyError("list columns", err)
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, database.ClassifyError("list columns", err)
		}
		columns = append(columns, models.Column{Name: name, Type: schema.TypeFromDataType(dataType).Name})
	}

	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError("list columns", err)
	}

	return columns, nil
}
