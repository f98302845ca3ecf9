package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/database"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
)

type PermissionRepository struct {
	pool *pgxpool.Pool
}

func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// Upsert writes both flags; the latest grant for a (user, table) pair wins.
func (r *PermissionRepository) Upsert(ctx context.Context, grant models.PermissionGrant) error {
	query := `
		INSERT INTO user_table_permissions (username, table_name, can_read, can_write)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username, table_name)
		DO UPDATE SET can_read = EXCLUDED.can_read, can_write = EXCLUDED.can_write
	`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, grant.Username, grant.TableName, grant.CanRead, grant.CanWrite)
		return err
	})
	return database.ClassifyError("grant permission", err)
}

// Find returns nil, nil when the user holds no grant on the table.
func (r *PermissionRepository) Find(ctx context.Context, username, table string) (*models.PermissionGrant, error) {
	query := `
		SELECT username, table_name, can_read, can_write
		FROM user_table_permissions
		WHERE username = $1 AND table_name = $2
	`

	var g models.PermissionGrant
	err := r.pool.QueryRow(ctx, query, username, table).Scan(&g.Username, &g.TableName, &g.CanRead, &g.CanWrite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, database.ClassifyError("find permission", err)
	}
	return &g, nil
}

// ListTables returns the tables on which username holds capability, alphabetically.
func (r *PermissionRepository) ListTables(ctx context.Context, username string, capability models.Capability) ([]string, error) {
	var flag string
	switch capability {
	case models.CapabilityRead:
		flag = "can_read"
	case models.CapabilityWrite:
		flag = "can_write"
	default:
		return nil, fmt.Errorf("unknown capability %q", capability)
	}

	query := fmt.Sprintf(`
		SELECT table_name FROM user_table_permissions
		WHERE username = $1 AND %s = TRUE
		ORDER BY table_name
	`, flag)

	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, database.ClassifyError("list permitted tables", err)
	}

	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, database.ClassifyError("list permitted tables", err)
	}
	return tables, nil
}
