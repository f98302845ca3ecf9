package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/responses"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/services"
)

type PermissionHandler struct {
	permissionService *services.PermissionService
}

func NewPermissionHandler(permissionService *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

// Grant handles POST /api/v1/permissions (admin only). Omitted flags default to true.
func (h *PermissionHandler) Grant(c *gin.Context) {
	var req services.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "username and table_name are required")
		return
	}

	canRead, canWrite := req.Flags()
	grant, err := h.permissionService.Grant(c.Request.Context(), req.Username, req.Table, canRead, canWrite)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"permission": grant}, "Table assigned to "+grant.Username)
}
