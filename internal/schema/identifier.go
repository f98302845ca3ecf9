package schema

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

// MaxIdentifierLength is PostgreSQL's NAMEDATALEN - 1.
const MaxIdentifierLength = 63

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Bookkeeping tables owned by the application.
const (
	UsersTable       = "system_users"
	PermissionsTable = "user_table_permissions"
	DropdownTable    = "table_dropdown_options"
)

// Columns added to every dynamic table.
const (
	IDColumn          = "id"
	CreatedAtColumn   = "created_at"
	SubmittedByColumn = "submitted_by"
)

var (
	systemTables  = []string{UsersTable, PermissionsTable, DropdownTable}
	systemColumns = []string{IDColumn, CreatedAtColumn, SubmittedByColumn}
)

// ValidIdentifier reports whether name may be used as a table or column name.
func ValidIdentifier(name string) bool {
	return len(name) <= MaxIdentifierLength && identifierPattern.MatchString(name)
}

// QuoteIdentifier quotes an already validated identifier for use in SQL text.
func QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func IsSystemTable(name string) bool {
	return containsFold(systemTables, name)
}

func IsSystemColumn(name string) bool {
	return containsFold(systemColumns, name)
}

func SystemTables() []string {
	return append([]string(nil), systemTables...)
}

func containsFold(list []string, name string) bool {
	for _, item := range list {
		if strings.EqualFold(item, name) {
			return true
		}
	}
	return false
}
