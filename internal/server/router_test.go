package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/config"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/logging"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/middlewares"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/repositories"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{TokenSecret: "test-secret", TokenTTL: time.Hour},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	tables := testutil.NewTables()
	svc := NewServices(cfg, Stores{
		Users:     testutil.NewUsers(),
		Grants:    testutil.NewGrants(),
		Schemas:   tables,
		Tables:    tables,
		Dropdowns: tables,
		Sessions:  repositories.NewMemorySessionRepository(),
	}, logging.Discard())

	return NewRouter(cfg, svc, logging.Discard())
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var decoded map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func (c *client) login(username, password string) {
	c.t.Helper()
	w, body := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": username, "password": password})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	c.token = body["access_token"].(string)
}

func TestHealth(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}
	w, body := c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	router := newTestRouter(t)
	c := &client{t: t, router: router}
	w, _ := c.do(http.MethodPost, "/api/v1/users", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["access_token"])

	var session *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middlewares.SessionCookieName {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLogin_WrongPassword(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}
	c.do(http.MethodPost, "/api/v1/users", map[string]string{"username": "alice", "password": "pw1"})

	w, body := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid username or password", body["message"])

	w, _ = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}

	for _, path := range []string{"/api/v1/users/me", "/api/v1/submissions", "/api/v1/reports", "/api/v1/tables"} {
		w, body := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, false, body["success"], path)
	}

	c.token = "garbage"
	w, _ := c.do(http.MethodGet, "/api/v1/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_EndsSession(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}
	c.do(http.MethodPost, "/api/v1/users", map[string]string{"username": "alice", "password": "pw1"})
	c.login("alice", "pw1")

	w, _ := c.do(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = c.do(http.MethodGet, "/api/v1/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	router := newTestRouter(t)
	admin := &client{t: t, router: router}
	admin.do(http.MethodPost, "/api/v1/users", map[string]string{"username": "admin", "password": "adminpw"})
	admin.do(http.MethodPost, "/api/v1/users", map[string]string{"username": "alice", "password": "pw1"})
	admin.login("admin", "adminpw")

	alice := &client{t: t, router: router}
	alice.login("alice", "pw1")

	w, body := alice.do(http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. Admin privileges required.", body["message"])

	w, body = admin.do(http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"admin", "alice"}, body["users"])

	w, _ = alice.do(http.MethodPost, "/api/v1/tables", map[string]any{
		"table_name": "survey",
		"columns":    []map[string]string{{"name": "rating", "type": "integer"}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateTable_Responses(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}
	c.do(http.MethodPost, "/api/v1/users", map[string]string{"username": "admin", "password": "adminpw"})
	c.login("admin", "adminpw")

	req := map[string]any{
		"table_name": "survey",
		"columns":    []map[string]string{{"name": "rating", "type": "integer"}},
	}
	w, body := c.do(http.MethodPost, "/api/v1/tables", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])

	w, _ = c.do(http.MethodPost, "/api/v1/tables", req)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = c.do(http.MethodPost, "/api/v1/tables", map[string]any{
		"table_name": "users; DROP TABLE x",
		"columns":    []map[string]string{{"name": "rating", "type": "integer"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = c.do(http.MethodPost, "/api/v1/tables", map[string]any{"table_name": "empty", "columns": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = c.do(http.MethodPost, "/api/v1/tables", map[string]any{
		"table_name":    "visits",
		"columns":       []map[string]string{{"name": "site", "type": "text"}},
		"assigned_user": "ghost",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, body["message"], "was created")
	assert.NotNil(t, body["table"])
}

func TestSurveyFlow(t *testing.T) {
	router := newTestRouter(t)
	admin := &client{t: t, router: router}
	admin.do(http.MethodPost, "/api/v1/users", map[string]string{"username": "admin", "password": "adminpw"})
	admin.do(http.MethodPost, "/api/v1/users", map[string]string{"username": "alice", "password": "pw1"})
	admin.login("admin", "adminpw")

	w, _ := admin.do(http.MethodPost, "/api/v1/tables", map[string]any{
		"table_name":       "survey",
		"columns":          []map[string]string{{"name": "rating", "type": "integer"}, {"name": "district", "type": "varchar"}},
		"dropdown_options": map[string]any{"district": []map[string]string{{"value": "arada", "label": "Arada"}}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	alice := &client{t: t, router: router}
	alice.login("alice", "pw1")

	w, _ = alice.do(http.MethodPost, "/api/v1/tables/survey/rows", map[string]any{"rating": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = admin.do(http.MethodPost, "/api/v1/permissions", map[string]any{"username": "alice", "table_name": "survey"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body := alice.do(http.MethodGet, "/api/v1/users/me/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"survey"}, body["tables"])

	w, body = alice.do(http.MethodGet, "/api/v1/tables/survey/columns", nil)
	require.Equal(t, http.StatusOK, w.Code)
	columns := body["columns"].([]any)
	require.Len(t, columns, 2)
	assert.Equal(t, "rating", columns[0].(map[string]any)["name"])

	w, body = alice.do(http.MethodPost, "/api/v1/tables/survey/rows", map[string]any{"rating": "5", "district": "arada"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 1, body["record_id"])

	w, body = alice.do(http.MethodGet, "/api/v1/tables/survey/submissions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["submissions"], 1)

	w, body = alice.do(http.MethodGet, "/api/v1/reports/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{map[string]any{"table": "survey", "count": float64(1)}}, body["summary"])

	w, _ = alice.do(http.MethodGet, "/api/v1/reports/tables/survey?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(w.Body.String(), "survey\nid,rating,district,created_at,submitted_by\n1,5,arada,"))

	w, _ = alice.do(http.MethodGet, "/api/v1/reports?format=text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "survey (1 rows)")

	w, _ = alice.do(http.MethodGet, "/api/v1/reports?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = alice.do(http.MethodGet, "/api/v1/tables/missing/columns", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
