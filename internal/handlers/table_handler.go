package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/middlewares"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/responses"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/services"
)

type TableHandler struct {
	tableService *services.TableService
}

func NewTableHandler(tableService *services.TableService) *TableHandler {
	return &TableHandler{
		tableService: tableService,
	}
}

// CreateTable handles POST /api/v1/tables (admin only). An identical table
// that already exists answers 200 instead of 201.
func (h *TableHandler) CreateTable(c *gin.Context) {
	var req services.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.tableService.CreateTable(c.Request.Context(), req)
	if err != nil && result != nil {
		// the table exists, only the assignment failed
		responses.ErrorWithData(c, err, gin.H{"table": result})
		return
	}
	if err != nil {
		responses.Error(c, err)
		return
	}

	status := http.StatusOK
	message := "Table already exists, dropdown options updated"
	if result.Created {
		status = http.StatusCreated
		message = "Table created successfully"
	}
	responses.Success(c, status, gin.H{"table": result}, message)
}

// ListTables handles GET /api/v1/tables (admin only)
func (h *TableHandler) ListTables(c *gin.Context) {
	tables, err := h.tableService.ListTables(c.Request.Context())
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"tables": tables}, "Tables retrieved successfully")
}

// GetColumns handles GET /api/v1/tables/:table/columns
func (h *TableHandler) GetColumns(c *gin.Context) {
	table := c.Param("table")

	columns, err := h.tableService.ListColumns(c.Request.Context(), table)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"table_name": table, "columns": columns}, "Columns retrieved successfully")
}

// InsertRow handles POST /api/v1/tables/:table/rows. The body is a flat JSON
// object of column name to value.
func (h *TableHandler) InsertRow(c *gin.Context) {
	username, ok := middlewares.CurrentIdentity(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Not logged in")
		return
	}

	var values map[string]any
	if err := c.ShouldBindJSON(&values); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Request body must be a JSON object")
		return
	}

	table := c.Param("table")
	id, err := h.tableService.InsertRow(c.Request.Context(), table, username, values)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusCreated, gin.H{"table_name": table, "record_id": id}, "Data submitted successfully")
}

// ListSubmissions handles GET /api/v1/tables/:table/submissions
func (h *TableHandler) ListSubmissions(c *gin.Context) {
	username, ok := middlewares.CurrentIdentity(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Not logged in")
		return
	}

	table := c.Param("table")
	submissions, err := h.tableService.ListSubmissions(c.Request.Context(), table, username)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"table_name": table, "submissions": submissions}, "Submissions retrieved successfully")
}

// ListAllSubmissions handles GET /api/v1/submissions
func (h *TableHandler) ListAllSubmissions(c *gin.Context) {
	username, ok := middlewares.CurrentIdentity(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Not logged in")
		return
	}

	submissions, err := h.tableService.ListAllSubmissions(c.Request.Context(), username)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"submissions": submissions}, "Submissions retrieved successfully")
}
