// Package testutil provides in-memory stores that behave like the
// PostgreSQL repositories, for service and handler tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/schema"
)

// Users implements services.UserStore.
type Users struct {
	mu     sync.Mutex
	byName map[string]models.User
	nextID int64
	// Err, when set, is returned by every call.
	Err error
}

func NewUsers() *Users {
	return &Users{byName: make(map[string]models.User)}
}

func (u *Users) Create(_ context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}

	user.Prepare()
	if _, ok := u.byName[user.Username]; ok {
		return apperrors.New(apperrors.Conflict, "create user: record already exists")
	}
	u.nextID++
	user.ID = u.nextID
	user.CreatedAt = time.Now()
	u.byName[user.Username] = *user
	return nil
}

func (u *Users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}

	user, ok := u.byName[username]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (u *Users) ListUsernames(context.Context) ([]string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}

	names := make([]string, 0, len(u.byName))
	for name := range u.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (u *Users) Count(context.Context) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return 0, u.Err
	}
	return int64(len(u.byName)), nil
}

// Grants implements services.PermissionStore.
type Grants struct {
	mu     sync.Mutex
	grants map[[2]string]models.PermissionGrant
	Err    error
}

func NewGrants() *Grants {
	return &Grants{grants: make(map[[2]string]models.PermissionGrant)}
}

func (g *Grants) Upsert(_ context.Context, grant models.PermissionGrant) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return g.Err
	}
	g.grants[[2]string{grant.Username, grant.TableName}] = grant
	return nil
}

func (g *Grants) Find(_ context.Context, username, table string) (*models.PermissionGrant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	grant, ok := g.grants[[2]string{username, table}]
	if !ok {
		return nil, nil
	}
	return &grant, nil
}

func (g *Grants) ListTables(_ context.Context, username string, capability models.Capability) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}

	var tables []string
	for key, grant := range g.grants {
		if key[0] == username && grant.Allows(capability) {
			tables = append(tables, key[1])
		}
	}
	sort.Strings(tables)
	return tables, nil
}

type table struct {
	columns []models.ColumnSpec
	rows    []map[string]any
}

// Tables implements services.SchemaStore, services.TableStore and
// services.DropdownStore over one in-memory catalogue.
type Tables struct {
	mu      sync.Mutex
	tables  map[string]*table
	options map[string]map[string]map[string]string
	nextID  int32
	clock   time.Time
	Err     error
}

func NewTables() *Tables {
	return &Tables{
		tables:  make(map[string]*table),
		options: make(map[string]map[string]map[string]string),
		clock:   time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (t *Tables) TableExists(_ context.Context, name string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return false, t.Err
	}
	_, ok := t.tables[name]
	return ok, nil
}

func (t *Tables) ListTables(context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}

	names := make([]string, 0, len(t.tables))
	for name := range t.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (t *Tables) Columns(_ context.Context, name string) ([]models.Column, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}

	tbl, ok := t.tables[name]
	if !ok {
		return nil, nil
	}

	columns := []models.Column{{Name: schema.IDColumn, Type: "integer"}}
	for _, col := range tbl.columns {
		columns = append(columns, models.Column{Name: col.Name, Type: col.Type})
	}
	columns = append(columns,
		models.Column{Name: schema.CreatedAtColumn, Type: "timestamp"},
		models.Column{Name: schema.SubmittedByColumn, Type: "varchar"},
	)
	return columns, nil
}

func (t *Tables) CreateTable(_ context.Context, def models.TableDefinition) (bool, error) {
	if _, err := schema.CreateTableSQL(def); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return false, t.Err
	}

	created := false
	if existing, ok := t.tables[def.Name]; ok {
		if !schema.SameColumns(existing.columns, def.Columns) {
			return false, apperrors.New(apperrors.Conflict, "table %q already exists with different columns", def.Name)
		}
	} else {
		t.tables[def.Name] = &table{columns: append([]models.ColumnSpec(nil), def.Columns...)}
		created = true
	}

	for column, opts := range def.Options {
		if t.options[def.Name] == nil {
			t.options[def.Name] = make(map[string]map[string]string)
		}
		if t.options[def.Name][column] == nil {
			t.options[def.Name][column] = make(map[string]string)
		}
		for _, opt := range opts {
			t.options[def.Name][column][opt.Value] = opt.Label
		}
	}

	return created, nil
}

func (t *Tables) InsertRow(_ context.Context, name string, columns []string, values []any) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return 0, t.Err
	}

	tbl, ok := t.tables[name]
	if !ok {
		return 0, apperrors.New(apperrors.NotFound, "insert row: relation %q does not exist", name)
	}

	t.nextID++
	t.clock = t.clock.Add(time.Second)
	row := map[string]any{
		schema.IDColumn:        t.nextID,
		schema.CreatedAtColumn: t.clock,
	}
	for i, col := range columns {
		row[col] = values[i]
	}
	tbl.rows = append(tbl.rows, row)
	return int64(t.nextID), nil
}

func (t *Tables) ListSubmissions(_ context.Context, name, submitter string) ([]models.Submission, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}

	tbl, ok := t.tables[name]
	if !ok {
		return nil, apperrors.New(apperrors.NotFound, "relation %q does not exist", name)
	}

	out := []models.Submission{}
	for _, row := range tbl.rows {
		if row[schema.SubmittedByColumn] != submitter {
			continue
		}
		out = append(out, models.Submission{
			Table:     name,
			RecordID:  int64(row[schema.IDColumn].(int32)),
			CreatedAt: row[schema.CreatedAtColumn].(time.Time),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (t *Tables) SelectRows(_ context.Context, name string, columns []string, submitter string) ([][]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}

	tbl, ok := t.tables[name]
	if !ok {
		return nil, apperrors.New(apperrors.NotFound, "relation %q does not exist", name)
	}

	var out [][]any
	for _, row := range tbl.rows {
		if row[schema.SubmittedByColumn] != submitter {
			continue
		}
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = row[col]
		}
		out = append(out, values)
	}
	return out, nil
}

func (t *Tables) CountRows(ctx context.Context, name, submitter string) (int64, error) {
	rows, err := t.SelectRows(ctx, name, nil, submitter)
	return int64(len(rows)), err
}

func (t *Tables) ListOptions(_ context.Context, name string) (map[string][]models.DropdownOption, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}

	out := make(map[string][]models.DropdownOption)
	for column, byValue := range t.options[name] {
		values := make([]string, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Strings(values)
		for _, v := range values {
			out[column] = append(out[column], models.DropdownOption{Value: v, Label: byValue[v]})
		}
	}
	return out, nil
}

// Row returns the stored values of row id in table, for assertions.
func (t *Tables) Row(name string, id int64) map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()

	tbl, ok := t.tables[name]
	if !ok {
		return nil
	}
	for _, row := range tbl.rows {
		if int64(row[schema.IDColumn].(int32)) == id {
			return row
		}
	}
	return nil
}
