package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/config"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/database"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/handlers"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/middlewares"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/repositories"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/routes"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/services"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/utils"
)

type Services struct {
	Users       *services.UserService
	Auth        *services.AuthService
	Permissions *services.PermissionService
	Tables      *services.TableService
	Reports     *services.ReportService
}

// Stores are the persistence dependencies of the services.
type Stores struct {
	Users     services.UserStore
	Grants    services.PermissionStore
	Schemas   services.SchemaStore
	Tables    services.TableStore
	Dropdowns services.DropdownStore
	Sessions  services.SessionStore
}

// NewServices wires the services over stores.
func NewServices(cfg config.Config, stores Stores, logger *log.Logger) Services {
	users := services.NewUserService(stores.Users, limiter(cfg.Auth.RegisterRate, cfg.Auth.RegisterBurst), logger)
	tokens := utils.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	auth := services.NewAuthService(users, stores.Sessions, tokens, limiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst), logger)
	permissions := services.NewPermissionService(stores.Grants, stores.Schemas, users, logger)
	tables := services.NewTableService(stores.Schemas, stores.Tables, stores.Dropdowns, permissions, logger)
	reports := services.NewReportService(permissions, stores.Schemas, stores.Tables, logger)

	return Services{
		Users:       users,
		Auth:        auth,
		Permissions: permissions,
		Tables:      tables,
		Reports:     reports,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg config.Config, svc Services, logger *log.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(logger), corsMiddleware(cfg.CORS))

	routes.RegisterRoutes(router,
		routes.Handlers{
			Auth:       handlers.NewAuthHandler(svc.Auth, cfg.Auth.CookieSecure),
			User:       handlers.NewUserHandler(svc.Users, svc.Permissions),
			Table:      handlers.NewTableHandler(svc.Tables),
			Permission: handlers.NewPermissionHandler(svc.Permissions),
			Report:     handlers.NewReportHandler(svc.Reports),
		},
		routes.Guards{
			Authenticate: middlewares.Authenticate(svc.Auth),
			RequireAdmin: middlewares.RequireAdmin(svc.Users),
		},
	)

	return router
}

type Server struct {
	http   *http.Server
	pool   *pgxpool.Pool
	rdb    *redis.Client
	cfg    config.Config
	logger *log.Logger
}

// New connects to PostgreSQL (and Redis when configured), prepares the
// system tables, seeds the configured admin and builds the HTTP server.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*Server, error) {
	pool, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.EnsureSchema(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Server{pool: pool, cfg: cfg, logger: logger}

	var sessions services.SessionStore
	if cfg.Redis.Addr != "" {
		s.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.rdb.Ping(pingCtx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("connected to Redis", "addr", cfg.Redis.Addr)
		sessions = repositories.NewRedisSessionRepository(s.rdb)
	} else {
		logger.Warn("no Redis address configured, sessions are kept in memory")
		sessions = repositories.NewMemorySessionRepository()
	}

	svc := NewServices(cfg, Stores{
		Users:     repositories.NewUserRepository(pool),
		Grants:    repositories.NewPermissionRepository(pool),
		Schemas:   repositories.NewSchemaRepository(pool),
		Tables:    repositories.NewTableRepository(pool),
		Dropdowns: repositories.NewDropdownRepository(pool),
		Sessions:  sessions,
	}, logger)

	if err := svc.Users.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Email); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      NewRouter(cfg, svc, logger),
		IdleTimeout:  cfg.Server.IdleTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

func (s *Server) Addr() string {
	return s.http.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server exited")
	return nil
}

// Close releases the database pool and the Redis client.
func (s *Server) Close() {
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Warn("closing redis client", "err", err)
		}
		s.rdb = nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}

	// credentials cannot be combined with a wildcard origin
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}

	return cors.New(corsCfg)
}

// limiter returns nil, meaning unlimited, for a non-positive rate.
func limiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
