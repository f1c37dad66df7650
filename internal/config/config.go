package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string
	GinMode    string
	LogLevel   slog.Level

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	IssueFetchTimeout time.Duration
	IssueTrackerToken string
	// IssueTrackerBaseURL is the only host IssueTrackerToken is sent to.
	IssueTrackerBaseURL string

	// AdminUsername and AdminPassword seed an Admin account at startup.
	// Seeding is skipped when the password is empty.
	AdminUsername string
	AdminPassword string
}

// Load reads envFile (".env" when empty) if present, then the environment.
// Malformed numeric values are reported by Validate, not here.
func Load(envFile string) *Config {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "taskmaster"),
		DBPassword: getEnv("DB_PASSWORD", "taskmaster"),
		DBName:     getEnv("DB_NAME", "taskmaster"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getLogLevel("LOG_LEVEL", slog.LevelInfo),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "taskmaster"),
		JWTAudience: getEnv("JWT_AUDIENCE", "taskmaster-clients"),

		IssueFetchTimeout:   getDuration("ISSUE_FETCH_TIMEOUT", 10*time.Second),
		IssueTrackerToken:   getEnv("ISSUE_TRACKER_TOKEN", ""),
		IssueTrackerBaseURL: getEnv("ISSUE_TRACKER_BASE_URL", "https://api.github.com"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

// DSN is the libpq-style connection string for gorm's postgres driver.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// MigrationURL is the same database addressed for golang-migrate's pgx
// driver.
func (c *Config) MigrationURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Validate reports every setting that keeps the server from starting.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.JWTSecret == "" {
		result = multierror.Append(result, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < 16 {
		result = multierror.Append(result, errors.New("JWT_SECRET must be at least 16 bytes"))
	}
	if c.JWTIssuer == "" {
		result = multierror.Append(result, errors.New("JWT_ISSUER must not be empty"))
	}
	if c.JWTAudience == "" {
		result = multierror.Append(result, errors.New("JWT_AUDIENCE must not be empty"))
	}
	if c.IssueFetchTimeout <= 0 {
		result = multierror.Append(result, errors.New("ISSUE_FETCH_TIMEOUT must be a positive duration"))
	}
	if port, err := strconv.Atoi(c.ServerPort); err != nil || port <= 0 || port > 65535 {
		result = multierror.Append(result, fmt.Errorf("SERVER_PORT %q is not a valid port", c.ServerPort))
	}
	if c.DBHost == "" || c.DBName == "" {
		result = multierror.Append(result, errors.New("DB_HOST and DB_NAME are required"))
	}
	if c.IssueTrackerToken != "" {
		if u, err := url.Parse(c.IssueTrackerBaseURL); err != nil || u.Host == "" {
			result = multierror.Append(result, fmt.Errorf("ISSUE_TRACKER_BASE_URL %q must be an absolute URL when ISSUE_TRACKER_TOKEN is set", c.IssueTrackerBaseURL))
		}
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		result = multierror.Append(result, fmt.Errorf("GIN_MODE %q must be debug, release or test", c.GinMode))
	}
	if c.AdminPassword != "" && c.AdminUsername == "" {
		result = multierror.Append(result, errors.New("ADMIN_USERNAME is required when ADMIN_PASSWORD is set"))
	}

	return result.ErrorOrNil()
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getDuration accepts Go durations ("15s") or bare seconds ("15"). An
// unparsable value yields 0, which Validate rejects.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func getLogLevel(key string, defaultVal slog.Level) slog.Level {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(value))); err != nil {
		return defaultVal
	}
	return level
}
