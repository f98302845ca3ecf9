package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/responses"
)

const (
	// SessionCookieName is set by the login handler.
	SessionCookieName = "session_token"

	usernameKey = "username"
)

// IdentityResolver maps a session token to the username it belongs to.
type IdentityResolver interface {
	CurrentIdentity(ctx context.Context, token string) (string, error)
}

// Authenticate accepts the token as "Authorization: Bearer <token>" or as the
// session cookie, and stores the resolved username in the context.
func Authenticate(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := tokenFromRequest(c)
		if !ok {
			responses.Abort(c, http.StatusUnauthorized, "Not logged in")
			return
		}

		username, err := resolver.CurrentIdentity(c.Request.Context(), token)
		if err != nil {
			status := apperrors.HTTPStatus(err)
			if apperrors.KindOf(err) == apperrors.Unknown {
				status = http.StatusUnauthorized
			}
			responses.Abort(c, status, apperrors.Message(err))
			return
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

// TokenFromRequest returns the raw session token of the request, if any.
func TokenFromRequest(c *gin.Context) string {
	token, _ := tokenFromRequest(c)
	return token
}

func tokenFromRequest(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie == "" {
		return "", false
	}
	return cookie, true
}

// CurrentIdentity returns the username set by Authenticate.
func CurrentIdentity(c *gin.Context) (string, bool) {
	username := c.GetString(usernameKey)
	return username, username != ""
}
