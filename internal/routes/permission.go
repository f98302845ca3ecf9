package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/handlers"
)

type PermissionRoutes struct {
	handler *handlers.PermissionHandler
	guards  Guards
}

func NewPermissionRoutes(handler *handlers.PermissionHandler, guards Guards) *PermissionRoutes {
	return &PermissionRoutes{handler: handler, guards: guards}
}

func (r *PermissionRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/permissions", r.guards.Authenticate, r.guards.RequireAdmin, r.handler.Grant)
}
