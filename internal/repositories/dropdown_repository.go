package repositories

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/database"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
)

type DropdownRepository struct {
	pool *pgxpool.Pool
}

func NewDropdownRepository(pool *pgxpool.Pool) *DropdownRepository {
	return &DropdownRepository{pool: pool}
}

// ListOptions returns the options of table keyed by column, each list ordered by value.
func (r *DropdownRepository) ListOptions(ctx context.Context, table string) (map[string][]models.DropdownOption, error) {
	query := `
		SELECT column_name, option_value, option_label
		FROM table_dropdown_options
		WHERE table_name = $1
		ORDER BY column_name, option_value
	`

	rows, err := r.pool.Query(ctx, query, table)
	if err != nil {
		return nil, database.ClassifyError("list dropdown options", err)
	}
	defer rows.Close()

	options := make(map[string][]models.DropdownOption)
	for rows.Next() {
		var column string
		var opt models.DropdownOption
		if err := rows.Scan(&column, &opt.Value, &opt.Label); err != nil {
			return nil, database.ClassifyError("list dropdown options", err)
		}
		options[column] = append(options[column], opt)
	}

	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError("list dropdown options", err)
	}

	return options, nil
}

// upsertOptions queues one statement per option on tx; the label of an
// existing (table, column, value) is overwritten.
func upsertOptions(ctx context.Context, tx pgx.Tx, table string, options map[string][]models.DropdownOption) error {
	if len(options) == 0 {
		return nil
	}

	query := `
		INSERT INTO table_dropdown_options (table_name, column_name, option_value, option_label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (table_name, column_name, option_value)
		DO UPDATE SET option_label = EXCLUDED.option_label
	`

	columns := make([]string, 0, len(options))
	for column := range options {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	batch := &pgx.Batch{}
	for _, column := range columns {
		for _, opt := range options[column] {
			batch.Queue(query, table, column, opt.Value, opt.Label)
		}
	}

	return tx.SendBatch(ctx, batch).Close()
}
