package services

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	log "github.com/charmbracelet/log"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

// ReportService assembles a user's own records into tabular blocks for export.
type ReportService struct {
	permissions *PermissionService
	schemas     SchemaStore
	tables      TableStore
	log         *log.Logger
}

func NewReportService(permissions *PermissionService, schemas SchemaStore, tables TableStore, logger *log.Logger) *ReportService {
	return &ReportService{
		permissions: permissions,
		schemas:     schemas,
		tables:      tables,
		log:         logger,
	}
}

// ExportAll returns one block per table caller can read. Tables that no
// longer exist are skipped.
func (s *ReportService) ExportAll(ctx context.Context, caller string) ([]models.TableBlock, error) {
	tables, err := s.permissions.ListForUser(ctx, caller, models.CapabilityRead)
	if err != nil {
		return nil, err
	}

	blocks := []models.TableBlock{}
	for _, table := range tables {
		block, err := s.block(ctx, table, caller)
		if err != nil {
			return nil, err
		}
		if block != nil {
			blocks = append(blocks, *block)
		}
	}

	s.log.Debug("report assembled", "username", caller, "tables", len(blocks))
	return blocks, nil
}

// ExportTable returns the block for a single table; read access is required.
func (s *ReportService) ExportTable(ctx context.Context, caller, table string) (*models.TableBlock, error) {
	if err := s.permissions.require(ctx, caller, table, models.CapabilityRead); err != nil {
		return nil, err
	}

	block, err := s.block(ctx, table, caller)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, notFoundTable(table)
	}
	return block, nil
}

// Summary counts caller's records in every readable table.
func (s *ReportService) Summary(ctx context.Context, caller string) ([]models.SummaryRow, error) {
	tables, err := s.permissions.ListForUser(ctx, caller, models.CapabilityRead)
	if err != nil {
		return nil, err
	}

	rows := []models.SummaryRow{}
	for _, table := range tables {
		exists, err := s.schemas.TableExists(ctx, table)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		n, err := s.tables.CountRows(ctx, table, caller)
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.SummaryRow{Table: table, Count: n})
	}
	return rows, nil
}

func (s *ReportService) block(ctx context.Context, table, caller string) (*models.TableBlock, error) {
	exists, err := s.schemas.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	columns, err := s.schemas.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Name
	}

	raw, err := s.tables.SelectRows(ctx, table, header, caller)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(raw))
	for _, values := range raw {
		row := make([]string, len(columns))
		for i := range columns {
			if i < len(values) {
				row[i] = stringify(values[i], columns[i].Type)
			}
		}
		rows = append(rows, row)
	}

	return &models.TableBlock{Table: table, Header: header, Rows: rows}, nil
}

// stringify renders a cell for export. NULL becomes the empty string.
func stringify(v any, columnType string) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		if columnType == "date" {
			return val.Format(dateLayout)
		}
		return val.Format(timestampLayout)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return fmt.Sprint(val)
		}
		if _, again := inner.(driver.Valuer); again {
			return fmt.Sprint(inner)
		}
		return stringify(inner, columnType)
	default:
		return fmt.Sprint(val)
	}
}

func notFoundTable(table string) error {
	return apperrors.New(apperrors.NotFound, "table %q not found", table)
}
