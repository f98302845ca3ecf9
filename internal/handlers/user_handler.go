package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/middlewares"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/responses"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/services"
)

type UserHandler struct {
	userService       *services.UserService
	permissionService *services.PermissionService
}

func NewUserHandler(userService *services.UserService, permissionService *services.PermissionService) *UserHandler {
	return &UserHandler{userService: userService, permissionService: permissionService}
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Email    string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Please provide a username and password")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusCreated, gin.H{"user": user}, "User created successfully")
}

// ListUsers handles GET /api/v1/users (admin only)
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsernames(c.Request.Context())
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"users": users}, "Users retrieved successfully")
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	username, ok := middlewares.CurrentIdentity(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Not logged in")
		return
	}

	user, err := h.userService.Get(c.Request.Context(), username)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"user": user}, "User retrieved successfully")
}

// GetMyTables handles GET /api/v1/users/me/tables: the forms the caller may fill in.
func (h *UserHandler) GetMyTables(c *gin.Context) {
	username, ok := middlewares.CurrentIdentity(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Not logged in")
		return
	}

	tables, err := h.permissionService.ListForUser(c.Request.Context(), username, models.CapabilityWrite)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"tables": tables}, "Tables retrieved successfully")
}
