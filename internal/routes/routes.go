package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/handlers"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Table      *handlers.TableHandler
	Permission *handlers.PermissionHandler
	Report     *handlers.ReportHandler
}

// Guards are the middlewares protecting routes. RequireAdmin must run after
// Authenticate.
type Guards struct {
	Authenticate gin.HandlerFunc
	RequireAdmin gin.HandlerFunc
}

func RegisterRoutes(router *gin.Engine, h Handlers, g Guards) {
	api := router.Group("/api/v1")

	NewAuthRoutes(h.Auth, g).RegisterRoutes(api)
	NewUserRoutes(h.User, g).RegisterRoutes(api)
	NewTableRoutes(h.Table, g).RegisterRoutes(api)
	NewPermissionRoutes(h.Permission, g).RegisterRoutes(api)
	NewReportRoutes(h.Report, g).RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
