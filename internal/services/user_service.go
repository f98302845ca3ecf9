package services

import (
	"context"
	"errors"
	"strings"

	log "github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/utils"
)

const maxUsernameLength = 100

// UserService is the credential store: it registers and verifies accounts.
type UserService struct {
	users      UserStore
	regLimiter *rate.Limiter
	log        *log.Logger
}

// NewUserService builds the service. A nil limiter disables throttling.
func NewUserService(users UserStore, regLimiter *rate.Limiter, logger *log.Logger) *UserService {
	return &UserService{
		users:      users,
		regLimiter: regLimiter,
		log:        logger,
	}
}

// Register creates an account. The first account ever created becomes admin.
func (s *UserService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	const op = "UserService.Register"
	username = strings.TrimSpace(username)
	logger := s.log.With("op", op, "username", username)

	if s.regLimiter != nil && !s.regLimiter.Allow() {
		logger.Warn("registration rate limit exceeded")
		return nil, apperrors.New(apperrors.TooManyRequests, "too many registrations, try again later")
	}

	if username == "" || len(username) > maxUsernameLength {
		return nil, apperrors.New(apperrors.Validation, "username must be between 1 and %d characters", maxUsernameLength)
	}
	if password == "" {
		return nil, apperrors.New(apperrors.Validation, "password is required")
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.Conflict, "username %q already exists", username)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Role:         models.RoleUser,
	}
	if count == 0 {
		user.Role = models.RoleAdmin
	}

	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.Conflict) {
			return nil, apperrors.Wrap(apperrors.Conflict, err, "username already exists")
		}
		return nil, err
	}

	logger.Info("user registered", "role", user.Role)
	return user, nil
}

// Verify checks a username and password pair. Unknown users and wrong
// passwords produce the same Unauthorized error.
func (s *UserService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.New(apperrors.Unauthorized, "invalid username or password")
	}

	if err := utils.VerifyPassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, utils.ErrPasswordMismatch) {
			s.log.Error("stored password hash is unreadable", "username", user.Username, "err", err)
		}
		return nil, apperrors.New(apperrors.Unauthorized, "invalid username or password")
	}

	return user, nil
}

func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.New(apperrors.NotFound, "user %q not found", username)
	}
	return user, nil
}

func (s *UserService) Exists(ctx context.Context, username string) (bool, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (s *UserService) IsAdmin(ctx context.Context, username string) (bool, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsAdmin(), nil
}

// ListUsernames feeds the assignment dropdown of the admin dashboard.
func (s *UserService) ListUsernames(ctx context.Context) ([]string, error) {
	names, err := s.users.ListUsernames(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// EnsureAdmin creates the configured administrator if it does not exist yet.
// An existing account of that name is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password, email string) error {
	if username == "" {
		return nil
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		if !existing.IsAdmin() {
			s.log.Warn("configured admin account exists without admin role", "username", username)
		}
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Role:         models.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	s.log.Info("admin account created", "username", username)
	return nil
}
