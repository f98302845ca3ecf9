package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
)

// Normalize validates a table definition and rewrites column types to their
// canonical names. Dropdown options with an empty value or label are dropped.
func Normalize(def models.TableDefinition) (models.TableDefinition, error) {
	out := models.TableDefinition{Name: strings.TrimSpace(def.Name)}

	if !ValidIdentifier(out.Name) {
		return out, apperrors.New(apperrors.Validation,
			"invalid table name %q: use letters, digits and underscores, starting with a letter or underscore", def.Name)
	}
	if IsSystemTable(out.Name) {
		return out, apperrors.New(apperrors.Validation, "table name %q is reserved", out.Name)
	}
	if len(def.Columns) == 0 {
		return out, apperrors.New(apperrors.Validation, "at least one column is required")
	}

	seen := make(map[string]bool, len(def.Columns))
	for i, col := range def.Columns {
		name := strings.TrimSpace(col.Name)
		if !ValidIdentifier(name) {
			return out, apperrors.New(apperrors.Validation, "invalid column name at index %d: %q", i, col.Name)
		}
		if IsSystemColumn(name) {
			return out, apperrors.New(apperrors.Validation, "column name %q is reserved", name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return out, apperrors.New(apperrors.Validation, "duplicate column name %q", name)
		}
		seen[key] = true

		t, ok := LookupType(col.Type)
		if !ok {
			return out, apperrors.New(apperrors.Validation,
				"unsupported type %q for column %q (supported: %s)", col.Type, name, strings.Join(SupportedTypes(), ", "))
		}
		out.Columns = append(out.Columns, models.ColumnSpec{Name: name, Type: t.Name})
	}

	for _, key := range slices.Sorted(maps.Keys(def.Options)) {
		column := strings.TrimSpace(key)
		if !hasColumn(out.Columns, column) {
			return out, apperrors.New(apperrors.Validation, "dropdown options given for unknown column %q", key)
		}
		options := def.Options[key]
		for _, opt := range options {
			value := strings.TrimSpace(opt.Value)
			label := strings.TrimSpace(opt.Label)
			if value == "" || label == "" {
				continue
			}
			if out.Options == nil {
				out.Options = make(map[string][]models.DropdownOption)
			}
			out.Options[column] = append(out.Options[column], models.DropdownOption{Value: value, Label: label})
		}
	}

	return out, nil
}

// CreateTableSQL renders the DDL for a normalized definition. The system
// columns wrap the user columns. The statement is a no-op when the table
// already exists.
func CreateTableSQL(def models.TableDefinition) (string, error) {
	if !ValidIdentifier(def.Name) {
		return "", apperrors.New(apperrors.Validation, "invalid table name %q", def.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdentifier(def.Name))
	fmt.Fprintf(&b, "  %s SERIAL PRIMARY KEY,\n", QuoteIdentifier(IDColumn))
	for _, col := range def.Columns {
		if !ValidIdentifier(col.Name) {
			return "", apperrors.New(apperrors.Validation, "invalid column name %q", col.Name)
		}
		t, ok := LookupType(col.Type)
		if !ok {
			return "", apperrors.New(apperrors.Validation, "unsupported type %q", col.Type)
		}
		fmt.Fprintf(&b, "  %s %s,\n", QuoteIdentifier(col.Name), t.DDL)
	}
	fmt.Fprintf(&b, "  %s TIMESTAMP DEFAULT CURRENT_TIMESTAMP,\n", QuoteIdentifier(CreatedAtColumn))
	fmt.Fprintf(&b, "  %s VARCHAR(100)\n", QuoteIdentifier(SubmittedByColumn))
	b.WriteString(")")

	return b.String(), nil
}

// SameColumns reports whether two user column lists match by name, order and type.
func SameColumns(a, b []models.ColumnSpec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ta, okA := LookupType(a[i].Type)
		tb, okB := LookupType(b[i].Type)
		if a[i].Name != b[i].Name || !okA || !okB || ta.Name != tb.Name {
			return false
		}
	}
	return true
}

// UserColumns drops the system columns from an introspected column list.
func UserColumns(columns []models.Column) []models.Column {
	out := make([]models.Column, 0, len(columns))
	for _, col := range columns {
		if IsSystemColumn(col.Name) {
			continue
		}
		out = append(out, col)
	}
	return out
}

func hasColumn(columns []models.ColumnSpec, name string) bool {
	for _, col := range columns {
		if col.Name == name {
			return true
		}
	}
	return false
}
