package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "dashboard"

type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Admin    AdminConfig    `mapstructure:"admin"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// URL takes precedence over the individual fields when set.
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig selects the session backend. An empty Addr keeps sessions in process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	TokenSecret   string        `mapstructure:"token_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	LoginRate     float64       `mapstructure:"login_rate"`
	LoginBurst    int           `mapstructure:"login_burst"`
	RegisterRate  float64       `mapstructure:"register_rate"`
	RegisterBurst int           `mapstructure:"register_burst"`
}

// AdminConfig seeds an administrator account at startup when Username is set.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Email    string `mapstructure:"email"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func defaults() map[string]any {
	return map[string]any{
		"env":                     "development",
		"server.port":             8080,
		"server.read_timeout":     "10s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "1m",
		"server.shutdown_timeout": "5s",
		"database.url":            "",
		"database.host":           "localhost",
		"database.port":           5432,
		"database.user":           "postgres",
		"database.password":       "",
		"database.name":           "dashboard",
		"database.sslmode":        "disable",
		"database.max_conns":      25,
		"database.min_conns":      5,
		"redis.addr":              "",
		"redis.password":          "",
		"redis.db":                0,
		"auth.token_secret":       "",
		"auth.token_ttl":          "12h",
		"auth.cookie_secure":      false,
		"auth.login_rate":         5.0,
		"auth.login_burst":        10,
		"auth.register_rate":      1.0,
		"auth.register_burst":     5,
		"admin.username":          "",
		"admin.password":          "",
		"admin.email":             "",
		"cors.allowed_origins":    []string{"http://localhost:3000"},
		"log.level":               "info",
		"log.format":              "text",
	}
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"port":      "server.port",
	"log-level": "log.level",
	"db-url":    "database.url",
}

// Load resolves the configuration from defaults, an optional dashboard.yaml,
// DASHBOARD_* environment variables and finally command line flags.
func Load(cmd *cobra.Command, configFile string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("dashboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/dashboard")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for flag, key := range flagKeys {
			if f := cmd.Flags().Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}

	return c, nil
}

func (c Config) Validate() error {
	var problems []string
	if c.Auth.TokenSecret == "" {
		problems = append(problems, "auth.token_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.token_ttl must be positive")
	}
	if c.Database.URL == "" {
		if c.Database.Host == "" {
			problems = append(problems, "database.host is required")
		}
		if c.Database.User == "" {
			problems = append(problems, "database.user is required")
		}
		if c.Database.Name == "" {
			problems = append(problems, "database.name is required")
		}
	}
	if c.Admin.Username != "" && c.Admin.Password == "" {
		problems = append(problems, "admin.password is required when admin.username is set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN builds a postgres:// connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// Redacted is the DSN with the password masked, for logs.
func (d DatabaseConfig) Redacted() string {
	u, err := url.Parse(d.DSN())
	if err != nil {
		return "postgres://***"
	}
	return u.Redacted()
}
