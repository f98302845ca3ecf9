package services

import (
	"context"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
)

// The services depend on these narrow views of the repositories.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsernames(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

type PermissionStore interface {
	Upsert(ctx context.Context, grant models.PermissionGrant) error
	Find(ctx context.Context, username, table string) (*models.PermissionGrant, error)
	ListTables(ctx context.Context, username string, capability models.Capability) ([]string, error)
}

type SchemaStore interface {
	TableExists(ctx context.Context, table string) (bool, error)
	ListTables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]models.Column, error)
}

type TableStore interface {
	CreateTable(ctx context.Context, def models.TableDefinition) (bool, error)
	InsertRow(ctx context.Context, table string, columns []string, values []any) (int64, error)
	ListSubmissions(ctx context.Context, table, submitter string) ([]models.Submission, error)
	SelectRows(ctx context.Context, table string, columns []string, submitter string) ([][]any, error)
	CountRows(ctx context.Context, table, submitter string) (int64, error)
}

type DropdownStore interface {
	ListOptions(ctx context.Context, table string) (map[string][]models.DropdownOption, error)
}

type SessionStore interface {
	Store(ctx context.Context, session models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}
