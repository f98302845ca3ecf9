package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/logging"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/repositories"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/testutil"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/utils"
)

type fixture struct {
	users       *testutil.Users
	grants      *testutil.Grants
	tables      *testutil.Tables
	userSvc     *UserService
	authSvc     *AuthService
	permissions *PermissionService
	tableSvc    *TableService
	reports     *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.Discard()

	f := &fixture{
		users:  testutil.NewUsers(),
		grants: testutil.NewGrants(),
		tables: testutil.NewTables(),
	}
	f.userSvc = NewUserService(f.users, nil, logger)
	f.authSvc = NewAuthService(f.userSvc, repositories.NewMemorySessionRepository(), utils.NewTokenIssuer("test-secret", time.Hour), nil, logger)
	f.permissions = NewPermissionService(f.grants, f.tables, f.userSvc, logger)
	f.tableSvc = NewTableService(f.tables, f.tables, f.tables, f.permissions, logger)
	f.reports = NewReportService(f.permissions, f.tables, f.tables, logger)
	return f
}

func (f *fixture) register(t *testing.T, username, password string) *models.User {
	t.Helper()
	user, err := f.userSvc.Register(context.Background(), username, password, username+"@example.com")
	require.NoError(t, err)
	return user
}

func (f *fixture) createTable(t *testing.T, name string, columns ...models.ColumnSpec) {
	t.Helper()
	_, err := f.tableSvc.CreateTable(context.Background(), CreateTableRequest{Table: name, Columns: columns})
	require.NoError(t, err)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.register(t, "admin", "adminpw")
	assert.Equal(t, models.RoleAdmin, first.Role)
	assert.NotZero(t, first.ID)

	second := f.register(t, "alice", "pw1")
	assert.Equal(t, models.RoleUser, second.Role)
	assert.NotEqual(t, "pw1", second.PasswordHash)

	_, err := f.userSvc.Register(ctx, "alice", "other", "")
	assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))

	_, err = f.userSvc.Register(ctx, "  ", "pw", "")
	assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))

	_, err = f.userSvc.Register(ctx, "bob", "", "")
	assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))
}

func TestRegister_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.userSvc.regLimiter = rate.NewLimiter(0, 1)

	f.register(t, "alice", "pw1")
	_, err := f.userSvc.Register(context.Background(), "bob", "pw2", "")
	assert.Equal(t, apperrors.TooManyRequests, apperrors.KindOf(err))
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")

	user, err := f.userSvc.Verify(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = f.userSvc.Verify(ctx, "alice", "wrong")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	_, err = f.userSvc.Verify(ctx, "nobody", "pw1")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.userSvc.EnsureAdmin(ctx, "root", "rootpw", "root@example.com"))
	require.NoError(t, f.userSvc.EnsureAdmin(ctx, "root", "changed", ""))
	require.NoError(t, f.userSvc.EnsureAdmin(ctx, "", "", ""))

	isAdmin, err := f.userSvc.IsAdmin(ctx, "root")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	_, err = f.userSvc.Verify(ctx, "root", "rootpw")
	assert.NoError(t, err)

	names, err := f.userSvc.ListUsernames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, names)
}

func TestSessionGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")

	_, err := f.authSvc.Login(ctx, "alice", "bad")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	login, err := f.authSvc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	who, err := f.authSvc.CurrentIdentity(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", who)

	require.NoError(t, f.authSvc.Logout(ctx, login.Token))
	_, err = f.authSvc.CurrentIdentity(ctx, login.Token)
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	_, err = f.authSvc.CurrentIdentity(ctx, "")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
	_, err = f.authSvc.CurrentIdentity(ctx, "not-a-token")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
	assert.NoError(t, f.authSvc.Logout(ctx, "not-a-token"))
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw1")
	f.authSvc.loginLimiter = rate.NewLimiter(0, 1)

	_, err := f.authSvc.Login(context.Background(), "alice", "wrong")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	_, err = f.authSvc.Login(context.Background(), "alice", "pw1")
	assert.Equal(t, apperrors.TooManyRequests, apperrors.KindOf(err))
}

func TestGrant_LastWriteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")
	f.createTable(t, "survey", models.ColumnSpec{Name: "rating", Type: "integer"})

	_, err := f.permissions.Grant(ctx, "alice", "survey", true, true)
	require.NoError(t, err)
	_, err = f.permissions.Grant(ctx, "alice", "survey", true, false)
	require.NoError(t, err)

	canWrite, err := f.permissions.Check(ctx, "alice", "survey", models.CapabilityWrite)
	require.NoError(t, err)
	assert.False(t, canWrite)

	canRead, err := f.permissions.Check(ctx, "alice", "survey", models.CapabilityRead)
	require.NoError(t, err)
	assert.True(t, canRead)

	writable, err := f.permissions.ListForUser(ctx, "alice", models.CapabilityWrite)
	require.NoError(t, err)
	assert.Empty(t, writable)

	readable, err := f.permissions.ListForUser(ctx, "alice", models.CapabilityRead)
	require.NoError(t, err)
	assert.Equal(t, []string{"survey"}, readable)
}

func TestGrant_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")
	f.createTable(t, "survey", models.ColumnSpec{Name: "rating", Type: "integer"})

	_, err := f.permissions.Grant(ctx, "alice", "missing", true, true)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))

	_, err = f.permissions.Grant(ctx, "ghost", "survey", true, true)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))

	_, err = f.permissions.Grant(ctx, "alice", "system_users", true, true)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))

	ok, err := f.permissions.Check(ctx, "alice", "survey", models.CapabilityWrite)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.permissions.Check(ctx, "alice", "survey", models.Capability("delete"))
	assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))
}

func TestCreateTable_ThenListColumns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.tableSvc.CreateTable(ctx, CreateTableRequest{
		Table: "inspection",
		Columns: []models.ColumnSpec{
			{Name: "district", Type: "varchar"},
			{Name: "score", Type: "INT"},
			{Name: "passed", Type: "bool"},
			{Name: "visited_on", Type: "date"},
		},
		DropdownOptions: map[string][]models.DropdownOption{
			"district": {{Value: "b", Label: "Maraki"}, {Value: "a", Label: "Arada"}, {Value: "", Label: "skip"}},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Created)

	columns, err := f.tableSvc.ListColumns(ctx, "inspection")
	require.NoError(t, err)

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"district", "score", "passed", "visited_on"}, names)
	assert.Equal(t, "integer", columns[1].Type)
	assert.Equal(t, "boolean", columns[2].Type)
	assert.Equal(t, []models.DropdownOption{{Value: "a", Label: "Arada"}, {Value: "b", Label: "Maraki"}}, columns[0].Options)
	assert.Empty(t, columns[1].Options)

	_, err = f.tableSvc.ListColumns(ctx, "nope")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
	_, err = f.tableSvc.ListColumns(ctx, "bad name")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))

	tables, err := f.tableSvc.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"inspection"}, tables)
}

func TestCreateTable_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := CreateTableRequest{
		Table:           "survey",
		Columns:         []models.ColumnSpec{{Name: "rating", Type: "integer"}},
		DropdownOptions: map[string][]models.DropdownOption{"rating": {{Value: "1", Label: "Poor"}}},
	}

	first, err := f.tableSvc.CreateTable(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.Created)

	req.Columns[0].Type = "int"
	req.DropdownOptions["rating"][0].Label = "Bad"
	second, err := f.tableSvc.CreateTable(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.Created)

	columns, err := f.tableSvc.ListColumns(ctx, "survey")
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Equal(t, []models.DropdownOption{{Value: "1", Label: "Bad"}}, columns[0].Options)

	_, err = f.tableSvc.CreateTable(ctx, CreateTableRequest{Table: "survey", Columns: []models.ColumnSpec{{Name: "rating", Type: "text"}}})
	assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))
}

func TestCreateTable_RejectsInjection(t *testing.T) {
	f := newFixture(t)

	_, err := f.tableSvc.CreateTable(context.Background(), CreateTableRequest{
		Table:   "users; DROP TABLE x",
		Columns: []models.ColumnSpec{{Name: "rating", Type: "integer"}},
	})
	assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))

	tables, err := f.tableSvc.ListTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestCreateTable_AssignsUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")

	res, err := f.tableSvc.CreateTable(ctx, CreateTableRequest{
		Table:        "survey",
		Columns:      []models.ColumnSpec{{Name: "rating", Type: "integer"}},
		AssignedUser: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.AssignedUser)

	ok, err := f.permissions.Check(ctx, "alice", "survey", models.CapabilityWrite)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateTable_AssignmentFailureKeepsTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.tableSvc.CreateTable(ctx, CreateTableRequest{
		Table:        "survey",
		Columns:      []models.ColumnSpec{{Name: "rating", Type: "integer"}},
		AssignedUser: "ghost",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "was created")
	require.NotNil(t, res)
	assert.True(t, res.Created)

	exists, err := f.tables.TableExists(ctx, "survey")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInsertRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")
	f.createTable(t, "survey",
		models.ColumnSpec{Name: "age", Type: "integer"},
		models.ColumnSpec{Name: "consent", Type: "boolean"},
		models.ColumnSpec{Name: "comment", Type: "text"},
	)

	_, err := f.tableSvc.InsertRow(ctx, "survey", "alice", map[string]any{"age": "30"})
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))

	_, err = f.permissions.Grant(ctx, "alice", "survey", false, true)
	require.NoError(t, err)

	id, err := f.tableSvc.InsertRow(ctx, "survey", "alice", map[string]any{
		"age":          "abc",
		"consent":      "yes",
		"submitted_by": "mallory",
		"unknown":      "ignored",
	})
	require.NoError(t, err)

	row := f.tables.Row("survey", id)
	require.NotNil(t, row)
	assert.Equal(t, int64(0), row["age"])
	assert.Equal(t, true, row["consent"])
	assert.Equal(t, "", row["comment"])
	assert.Equal(t, "alice", row["submitted_by"])
	assert.NotContains(t, row, "unknown")

	_, err = f.tableSvc.ListSubmissions(ctx, "survey", "alice")
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err), "listing requires the read flag")
}

func TestInsertRow_StoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")
	f.createTable(t, "survey", models.ColumnSpec{Name: "age", Type: "integer"})
	_, err := f.permissions.Grant(ctx, "alice", "survey", true, true)
	require.NoError(t, err)

	f.tables.Err = apperrors.New(apperrors.StoreUnavailable, "database unavailable")
	_, err = f.tableSvc.InsertRow(ctx, "survey", "alice", map[string]any{"age": 1})
	assert.Equal(t, apperrors.StoreUnavailable, apperrors.KindOf(err))
}

func TestListSubmissions_OwnRowsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")
	f.register(t, "bob", "pw2")
	f.createTable(t, "survey", models.ColumnSpec{Name: "rating", Type: "integer"})
	f.createTable(t, "visits", models.ColumnSpec{Name: "site", Type: "text"})
	for _, u := range []string{"alice", "bob"} {
		for _, tbl := range []string{"survey", "visits"} {
			_, err := f.permissions.Grant(ctx, u, tbl, true, true)
			require.NoError(t, err)
		}
	}

	first, err := f.tableSvc.InsertRow(ctx, "survey", "alice", map[string]any{"rating": 1})
	require.NoError(t, err)
	_, err = f.tableSvc.InsertRow(ctx, "survey", "bob", map[string]any{"rating": 2})
	require.NoError(t, err)
	second, err := f.tableSvc.InsertRow(ctx, "survey", "alice", map[string]any{"rating": 3})
	require.NoError(t, err)
	visit, err := f.tableSvc.InsertRow(ctx, "visits", "alice", map[string]any{"site": "Fasil Ghebbi"})
	require.NoError(t, err)

	subs, err := f.tableSvc.ListSubmissions(ctx, "survey", "alice")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, second, subs[0].RecordID)
	assert.Equal(t, first, subs[1].RecordID)

	all, err := f.tableSvc.ListAllSubmissions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "visits", all[0].Table)
	assert.Equal(t, visit, all[0].RecordID)
}

func TestEndToEnd_SurveyFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "admin", "adminpw")
	f.register(t, "alice", "pw1")

	_, err := f.tableSvc.CreateTable(ctx, CreateTableRequest{
		Table:   "survey",
		Columns: []models.ColumnSpec{{Name: "rating", Type: "integer"}},
	})
	require.NoError(t, err)
	_, err = f.permissions.Grant(ctx, "alice", "survey", true, true)
	require.NoError(t, err)

	_, err = f.tableSvc.InsertRow(ctx, "survey", "alice", map[string]any{"rating": "5"})
	require.NoError(t, err)

	subs, err := f.tableSvc.ListSubmissions(ctx, "survey", "alice")
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	summary, err := f.reports.Summary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.SummaryRow{{Table: "survey", Count: 1}}, summary)
}
