package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultTaskCacheTTL    = 60 * time.Second
	DefaultAuthRatePerMin  = 20
)

// Config holds all configuration required by the API process.
// All values come from env (optionally seeded from a .env file).
// Nothing outside this package reads the environment.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Bootstrap BootstrapConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional. With no host the API falls back to an in-process cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	AccessSecret    string
	RefreshSecret   string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// SMTPConfig is optional. With no host, emails are written to the log instead.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLSMode: auto, ssl, none
	TLSMode string
}

type CacheConfig struct {
	TaskListTTL time.Duration
}

type RateLimitConfig struct {
	AuthRequestsPerMinute int
}

// BootstrapConfig seeds the first owner account on an empty database.
type BootstrapConfig struct {
	OwnerEmail    string
	OwnerPassword string
	OwnerName     string
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function (os.Getenv in production).
func FromEnv(getenv func(string) string) (Config, error) {
	c := Config{}
	var parseErrs []error
	str := func(key string) string { return strings.TrimSpace(getenv(key)) }
	num := func(key string, required bool, def int) int {
		n, err := parseInt(key, str(key), required, def)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		return n
	}
	dur := func(key string) time.Duration {
		d, err := parseDuration(key, str(key))
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		return d
	}

	c.App.Env = str("APP_ENV")
	c.App.Port = num("APP_PORT", true, 0)

	c.DB.Host = str("DB_HOST")
	c.DB.Port = num("DB_PORT", true, 0)
	c.DB.User = str("DB_USER")
	c.DB.Password = getenv("DB_PASSWORD")
	c.DB.Name = str("DB_NAME")
	c.DB.SSLMode = str("DB_SSLMODE")

	c.Redis.Host = str("REDIS_HOST")
	c.Redis.Port = num("REDIS_PORT", false, 6379)
	c.Redis.Password = getenv("REDIS_PASSWORD")
	c.Redis.DB = num("REDIS_DB", false, 0)

	// Secrets are taken verbatim.
	c.Auth.AccessSecret = getenv("JWT_ACCESS_SECRET")
	c.Auth.RefreshSecret = getenv("JWT_REFRESH_SECRET")
	c.Auth.Issuer = str("JWT_ISSUER")
	c.Auth.Audience = str("JWT_AUDIENCE")
	c.Auth.AccessTokenTTL = dur("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = dur("JWT_REFRESH_TTL")

	c.SMTP.Host = str("SMTP_HOST")
	c.SMTP.Port = num("SMTP_PORT", false, 587)
	c.SMTP.Username = str("SMTP_USERNAME")
	c.SMTP.Password = getenv("SMTP_PASSWORD")
	c.SMTP.From = str("SMTP_FROM")
	c.SMTP.TLSMode = str("SMTP_TLS_MODE")

	c.Cache.TaskListTTL = dur("CACHE_TASK_LIST_TTL")
	c.RateLimit.AuthRequestsPerMinute = num("RATE_LIMIT_AUTH_PER_MINUTE", false, DefaultAuthRatePerMin)

	c.Bootstrap.OwnerEmail = str("BOOTSTRAP_OWNER_EMAIL")
	c.Bootstrap.OwnerPassword = getenv("BOOTSTRAP_OWNER_PASSWORD")
	c.Bootstrap.OwnerName = str("BOOTSTRAP_OWNER_NAME")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every field, collecting all problems into one error, and fills defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET is required"))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.IsProduction() && (len(c.Auth.AccessSecret) < 32 || len(c.Auth.RefreshSecret) < 32) {
		errs = append(errs, errors.New("JWT secrets must be at least 32 bytes in production"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.SMTP.Host != "" {
		if c.SMTP.From == "" {
			errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			errs = append(errs, fmt.Errorf("SMTP_PORT must be a valid port, got %d", c.SMTP.Port))
		}
	}
	switch c.SMTP.TLSMode {
	case "":
		c.SMTP.TLSMode = "auto"
	case "auto", "ssl", "none":
	default:
		errs = append(errs, fmt.Errorf("SMTP_TLS_MODE must be one of auto, ssl, none, got %q", c.SMTP.TLSMode))
	}

	if c.Cache.TaskListTTL <= 0 {
		c.Cache.TaskListTTL = DefaultTaskCacheTTL
	}
	if c.RateLimit.AuthRequestsPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_AUTH_PER_MINUTE must not be negative"))
	}

	if (c.Bootstrap.OwnerEmail == "") != (c.Bootstrap.OwnerPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_OWNER_EMAIL and BOOTSTRAP_OWNER_PASSWORD must be set together"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// PostgresDSN returns a postgres:// URL. Credentials are percent-encoded, so any
// character is safe in them. Never log the result.
func (c Config) PostgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DB.User, c.DB.Password),
		Host:   net.JoinHostPort(c.DB.Host, strconv.Itoa(c.DB.Port)),
		Path:   "/" + c.DB.Name,
	}
	if c.DB.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.DB.SSLMode}}.Encode()
	}
	return u.String()
}

func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func parseInt(key, v string, required bool, def int) (int, error) {
	if v == "" {
		if required {
			return 0, fmt.Errorf("%s is required", key)
		}
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// parseDuration returns 0 for an empty value so Validate can apply defaults.
func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
