package services

import (
	"context"
	"strings"

	log "github.com/charmbracelet/log"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/schema"
)

// PermissionService is the permission registry: per user, per table read
// and write flags.
type PermissionService struct {
	grants  PermissionStore
	schemas SchemaStore
	users   *UserService
	log     *log.Logger
}

func NewPermissionService(grants PermissionStore, schemas SchemaStore, users *UserService, logger *log.Logger) *PermissionService {
	return &PermissionService{
		grants:  grants,
		schemas: schemas,
		users:   users,
		log:     logger,
	}
}

type GrantRequest struct {
	Username string `json:"username" binding:"required"`
	Table    string `json:"table_name" binding:"required"`
	CanRead  *bool  `json:"can_read"`
	CanWrite *bool  `json:"can_write"`
}

// Flags applies the default of true to omitted flags.
func (r GrantRequest) Flags() (canRead, canWrite bool) {
	canRead, canWrite = true, true
	if r.CanRead != nil {
		canRead = *r.CanRead
	}
	if r.CanWrite != nil {
		canWrite = *r.CanWrite
	}
	return canRead, canWrite
}

// Grant upserts the flags for (username, table). Both flags are replaced.
func (s *PermissionService) Grant(ctx context.Context, username, table string, canRead, canWrite bool) (*models.PermissionGrant, error) {
	username = strings.TrimSpace(username)
	table = strings.TrimSpace(table)

	if !schema.ValidIdentifier(table) || schema.IsSystemTable(table) {
		return nil, apperrors.New(apperrors.NotFound, "table %q not found", table)
	}
	exists, err := s.schemas.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.New(apperrors.NotFound, "table %q not found", table)
	}

	known, err := s.users.Exists(ctx, username)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, apperrors.New(apperrors.NotFound, "user %q not found", username)
	}

	grant := models.PermissionGrant{Username: username, TableName: table, CanRead: canRead, CanWrite: canWrite}
	if err := s.grants.Upsert(ctx, grant); err != nil {
		return nil, err
	}

	s.log.Info("permission granted", "username", username, "table", table, "read", canRead, "write", canWrite)
	return &grant, nil
}

// Check is false, without error, when no grant exists.
func (s *PermissionService) Check(ctx context.Context, username, table string, capability models.Capability) (bool, error) {
	if !capability.Valid() {
		return false, apperrors.New(apperrors.Validation, "unknown capability %q", capability)
	}

	grant, err := s.grants.Find(ctx, username, table)
	if err != nil {
		return false, err
	}
	if grant == nil {
		return false, nil
	}
	return grant.Allows(capability), nil
}

// ListForUser returns the tables username holds capability on, alphabetically.
func (s *PermissionService) ListForUser(ctx context.Context, username string, capability models.Capability) ([]string, error) {
	if !capability.Valid() {
		return nil, apperrors.New(apperrors.Validation, "unknown capability %q", capability)
	}

	tables, err := s.grants.ListTables(ctx, username, capability)
	if err != nil {
		return nil, err
	}
	if tables == nil {
		tables = []string{}
	}
	return tables, nil
}

// require fails with Forbidden unless username holds capability on table.
func (s *PermissionService) require(ctx context.Context, username, table string, capability models.Capability) error {
	ok, err := s.Check(ctx, username, table, capability)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.Forbidden, "you do not have %s access to table %q", capability, table)
	}
	return nil
}
