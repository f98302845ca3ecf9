package services

import (
	"context"
	"sort"
	"strings"

	log "github.com/charmbracelet/log"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/schema"
)

// TableService manages the dynamic tables: definition, introspection,
// submissions.
type TableService struct {
	schemas     SchemaStore
	tables      TableStore
	dropdowns   DropdownStore
	permissions *PermissionService
	log         *log.Logger
}

func NewTableService(
	schemas SchemaStore,
	tables TableStore,
	dropdowns DropdownStore,
	permissions *PermissionService,
	logger *log.Logger,
) *TableService {
	return &TableService{
		schemas:     schemas,
		tables:      tables,
		dropdowns:   dropdowns,
		permissions: permissions,
		log:         logger,
	}
}

type CreateTableRequest struct {
	Table           string                             `json:"table_name" binding:"required"`
	Columns         []models.ColumnSpec                `json:"columns" binding:"required,min=1,dive"`
	DropdownOptions map[string][]models.DropdownOption `json:"dropdown_options"`
	AssignedUser    string                             `json:"assigned_user"`
}

type CreateTableResult struct {
	Table        string `json:"table_name"`
	Created      bool   `json:"created"`
	AssignedUser string `json:"assigned_user,omitempty"`
}

// CreateTable defines a table, or leaves an identical existing one in place,
// and upserts its dropdown options. Assigning the table to a user is a
// second, separate step: when it fails the table stays created and the
// returned result is accompanied by the error.
func (s *TableService) CreateTable(ctx context.Context, req CreateTableRequest) (*CreateTableResult, error) {
	const op = "TableService.CreateTable"

	def, err := schema.Normalize(models.TableDefinition{
		Name:    req.Table,
		Columns: req.Columns,
		Options: req.DropdownOptions,
	})
	if err != nil {
		return nil, err
	}

	logger := s.log.With("op", op, "table", def.Name)

	created, err := s.tables.CreateTable(ctx, def)
	if err != nil {
		logger.Error("create table failed", "err", err)
		return nil, err
	}
	if created {
		logger.Info("table created", "columns", len(def.Columns))
	} else {
		logger.Info("table already exists, options refreshed")
	}

	result := &CreateTableResult{Table: def.Name, Created: created}

	assignee := strings.TrimSpace(req.AssignedUser)
	if assignee == "" {
		return result, nil
	}

	if _, err := s.permissions.Grant(ctx, assignee, def.Name, true, true); err != nil {
		logger.Warn("table created but assignment failed", "assigned_user", assignee, "err", err)
		return result, &apperrors.Error{
			Kind:    apperrors.KindOf(err),
			Message: "table " + def.Name + " was created but assigning it to " + assignee + " failed: " + apperrors.Message(err),
			Err:     err,
		}
	}
	result.AssignedUser = assignee

	return result, nil
}

// ListTables returns every dynamic table, for administrators.
func (s *TableService) ListTables(ctx context.Context) ([]string, error) {
	tables, err := s.schemas.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if tables == nil {
		tables = []string{}
	}
	return tables, nil
}

// ListColumns returns the user columns of table in declaration order with
// their dropdown options attached.
func (s *TableService) ListColumns(ctx context.Context, table string) ([]models.Column, error) {
	columns, err := s.userColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	options, err := s.dropdowns.ListOptions(ctx, table)
	if err != nil {
		return nil, err
	}

	for i := range columns {
		columns[i].Options = options[columns[i].Name]
		if columns[i].Options == nil {
			columns[i].Options = []models.DropdownOption{}
		}
	}

	return columns, nil
}

// InsertRow stores one submission from caller, who needs write access.
// Keys that are not columns of the table are ignored.
func (s *TableService) InsertRow(ctx context.Context, table, caller string, values map[string]any) (int64, error) {
	const op = "TableService.InsertRow"

	if err := s.permissions.require(ctx, caller, table, models.CapabilityWrite); err != nil {
		return 0, err
	}

	columns, err := s.userColumns(ctx, table)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+1)
	for _, col := range columns {
		t, ok := schema.LookupType(col.Type)
		if !ok {
			t = schema.TypeFromDataType(col.Type)
		}
		names = append(names, col.Name)
		args = append(args, coerceValue(t, values[col.Name]))
	}
	names = append(names, schema.SubmittedByColumn)
	args = append(args, caller)

	id, err := s.tables.InsertRow(ctx, table, names, args)
	if err != nil {
		s.log.Error("insert row failed", "op", op, "table", table, "username", caller, "err", err)
		return 0, err
	}

	s.log.Info("row submitted", "op", op, "table", table, "username", caller, "record_id", id)
	return id, nil
}

// ListSubmissions lists caller's own rows in table, newest first. Read
// access is required.
func (s *TableService) ListSubmissions(ctx context.Context, table, caller string) ([]models.Submission, error) {
	if err := s.permissions.require(ctx, caller, table, models.CapabilityRead); err != nil {
		return nil, err
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	submissions, err := s.tables.ListSubmissions(ctx, table, caller)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []models.Submission{}
	}
	return submissions, nil
}

// ListAllSubmissions merges caller's submissions over every readable table.
// Tables that disappeared from the store are skipped.
func (s *TableService) ListAllSubmissions(ctx context.Context, caller string) ([]models.Submission, error) {
	tables, err := s.permissions.ListForUser(ctx, caller, models.CapabilityRead)
	if err != nil {
		return nil, err
	}

	all := []models.Submission{}
	for _, table := range tables {
		exists, err := s.tableExists(ctx, table)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		submissions, err := s.tables.ListSubmissions(ctx, table, caller)
		if err != nil {
			return nil, err
		}
		all = append(all, submissions...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (s *TableService) userColumns(ctx context.Context, table string) ([]models.Column, error) {
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	columns, err := s.schemas.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	return schema.UserColumns(columns), nil
}

func (s *TableService) ensureTable(ctx context.Context, table string) error {
	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.New(apperrors.NotFound, "table %q not found", table)
	}
	return nil
}

func (s *TableService) tableExists(ctx context.Context, table string) (bool, error) {
	if !schema.ValidIdentifier(table) || schema.IsSystemTable(table) {
		return false, nil
	}
	return s.schemas.TableExists(ctx, table)
}
