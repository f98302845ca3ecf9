package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/handlers"
)

type AuthRoutes struct {
	handler *handlers.AuthHandler
	guards  Guards
}

func NewAuthRoutes(handler *handlers.AuthHandler, guards Guards) *AuthRoutes {
	return &AuthRoutes{handler: handler, guards: guards}
}

func (r *AuthRoutes) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", r.handler.Login)
		auth.POST("/logout", r.guards.Authenticate, r.handler.Logout)
	}
}
