package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/handlers"
)

type UserRoutes struct {
	userHandler *handlers.UserHandler
	guards      Guards
}

func NewUserRoutes(userHandler *handlers.UserHandler, guards Guards) *UserRoutes {
	return &UserRoutes{
		userHandler: userHandler,
		guards:      guards,
	}
}

func (r *UserRoutes) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		// Registration is open
		users.POST("", r.userHandler.CreateUser)

		users.GET("/me", r.guards.Authenticate, r.userHandler.GetMe)
		users.GET("/me/tables", r.guards.Authenticate, r.userHandler.GetMyTables)

		// Admin-only routes
		users.GET("", r.guards.Authenticate, r.guards.RequireAdmin, r.userHandler.ListUsers)
	}
}
