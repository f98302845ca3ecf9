package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/responses"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, username string) (bool, error)
}

// RequireAdmin checks if the authenticated user is an admin.
// This middleware should be used after Authenticate.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := CurrentIdentity(c)
		if !ok {
			responses.Abort(c, http.StatusUnauthorized, "Not logged in")
			return
		}

		isAdmin, err := checker.IsAdmin(c.Request.Context(), username)
		if err != nil {
			responses.Abort(c, apperrors.HTTPStatus(err), apperrors.Message(err))
			return
		}
		if !isAdmin {
			responses.Abort(c, http.StatusForbidden, "Access denied. Admin privileges required.")
			return
		}

		c.Next()
	}
}
