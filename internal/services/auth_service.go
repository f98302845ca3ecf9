package services

import (
	"context"

	log "github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/utils"
)

// AuthService is the session gate. A login issues a signed token whose id
// is recorded in the session store; logout removes that record, so a token
// stops working even before it expires.
type AuthService struct {
	users        *UserService
	sessions     SessionStore
	tokens       *utils.TokenIssuer
	loginLimiter *rate.Limiter
	log          *log.Logger
}

func NewAuthService(users *UserService, sessions SessionStore, tokens *utils.TokenIssuer, loginLimiter *rate.Limiter, logger *log.Logger) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		tokens:       tokens,
		loginLimiter: loginLimiter,
		log:          logger,
	}
}

type LoginResult struct {
	Token   string
	Session models.Session
	User    *models.User
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	const op = "AuthService.Login"
	logger := s.log.With("op", op, "username", username)

	if s.loginLimiter != nil && !s.loginLimiter.Allow() {
		logger.Warn("login rate limit exceeded")
		return nil, apperrors.New(apperrors.TooManyRequests, "too many login attempts, try again later")
	}

	user, err := s.users.Verify(ctx, username, password)
	if err != nil {
		logger.Info("login rejected", "reason", apperrors.KindOf(err).String())
		return nil, err
	}

	token, claims, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	session := models.Session{
		ID:        claims.ID,
		Username:  user.Username,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.sessions.Store(ctx, session); err != nil {
		return nil, err
	}

	logger.Info("user logged in")
	return &LoginResult{Token: token, Session: session, User: user}, nil
}

// Logout clears the session behind token. Unknown or expired tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ParseIgnoringExpiry(token)
	if err != nil || claims == nil {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}

// CurrentIdentity resolves token to the username bound to its live session.
func (s *AuthService) CurrentIdentity(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.New(apperrors.Unauthorized, "not logged in")
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Unauthorized, err, "invalid or expired token")
	}

	session, err := s.sessions.Find(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if session == nil || session.Username != claims.Subject {
		return "", apperrors.New(apperrors.Unauthorized, "session has ended, please log in again")
	}

	return session.Username, nil
}

func (s *AuthService) TokenTTL() int {
	return int(s.tokens.TTL().Seconds())
}
