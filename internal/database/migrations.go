package database

import (
	"context"
	"fmt"

	log "github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the bookkeeping tables. Every statement is idempotent,
// so it runs at startup and from the ensure-schema command.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) error {
	migrations := []string{
		createSystemUsersTable,
		addRoleColumnToSystemUsers,
		createUserTablePermissionsTable,
		createTableDropdownOptionsTable,
	}

	for i, migration := range migrations {
		logger.Debug("running migration", "step", i+1, "total", len(migrations))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return ClassifyError(fmt.Sprintf("migration %d", i+1), err)
		}
	}

	logger.Info("schema is up to date", "migrations", len(migrations))
	return nil
}

const createSystemUsersTable = `
CREATE TABLE IF NOT EXISTS system_users (
  id            SERIAL PRIMARY KEY,
  username      VARCHAR(100) NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  email         VARCHAR(255) NOT NULL DEFAULT '',
  created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const addRoleColumnToSystemUsers = `
ALTER TABLE system_users
  ADD COLUMN IF NOT EXISTS role VARCHAR(20) NOT NULL DEFAULT 'user';
`

const createUserTablePermissionsTable = `
CREATE TABLE IF NOT EXISTS user_table_permissions (
  id         SERIAL PRIMARY KEY,
  username   VARCHAR(100) NOT NULL,
  table_name VARCHAR(100) NOT NULL,
  can_read   BOOLEAN NOT NULL DEFAULT TRUE,
  can_write  BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (username, table_name)
);
`

const createTableDropdownOptionsTable = `
CREATE TABLE IF NOT EXISTS table_dropdown_options (
  id           SERIAL PRIMARY KEY,
  table_name   VARCHAR(100) NOT NULL,
  column_name  VARCHAR(100) NOT NULL,
  option_value VARCHAR(255) NOT NULL,
  option_label VARCHAR(255) NOT NULL,
  created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (table_name, column_name, option_value)
);
`
