package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/middlewares"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/responses"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/services"
)

type AuthHandler struct {
	authService  *services.AuthService
	secureCookie bool
}

// NewAuthHandler builds the handler. secureCookie marks the session cookie
// Secure, which browsers only send back over HTTPS.
func NewAuthHandler(authService *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Username and password are required")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		responses.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.SessionCookieName, result.Token, h.authService.TokenTTL(), "/", "", h.secureCookie, true)

	responses.Success(c, http.StatusOK, gin.H{
		"access_token": result.Token,
		"token_type":   "Bearer",
		"expires_in":   h.authService.TokenTTL(),
		"user":         result.User,
	}, "Logged in successfully")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middlewares.TokenFromRequest(c)); err != nil {
		responses.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.SessionCookieName, "", -1, "/", "", h.secureCookie, true)

	responses.Success(c, http.StatusOK, nil, "Logged out successfully")
}
