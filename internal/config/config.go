// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Profile store backends.
const (
	ProfileStoreFirestore = "firestore"
	ProfileStorePostgres  = "postgres"
	ProfileStoreSQLite    = "sqlite"
)

// maxSessionTTL is the longest lifetime Firebase accepts for a session cookie.
const maxSessionTTL = 14 * 24 * time.Hour

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"-"` // SERVER_TIMEOUT_SECONDS

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseAPIKey                string `mapstructure:"FIREBASE_API_KEY"`
	FirebaseAuthEmulatorHost      string `mapstructure:"FIREBASE_AUTH_EMULATOR_HOST"`

	// Profile Store Configuration
	ProfileStore      string `mapstructure:"PROFILE_STORE"`
	ProfileCollection string `mapstructure:"PROFILE_COLLECTION"`
	SQLitePath        string `mapstructure:"SQLITE_PATH"`

	// Database Configuration (PROFILE_STORE=postgres)
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"-"` // DB_CONN_MAX_LIFETIME_MINUTES

	// Session Configuration
	SessionCookieName           string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionIDCookieName         string        `mapstructure:"SESSION_ID_COOKIE_NAME"`
	SessionTTL                  time.Duration `mapstructure:"-"` // SESSION_TTL_HOURS
	SessionCookieSecure         bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	SessionCookieDomain         string        `mapstructure:"SESSION_COOKIE_DOMAIN"`
	SessionCookieSameSite       string        `mapstructure:"SESSION_COOKIE_SAMESITE"`
	SessionRestoreTimeout       time.Duration `mapstructure:"-"` // SESSION_RESTORE_TIMEOUT_SECONDS
	SessionRevalidationSchedule string        `mapstructure:"SESSION_REVALIDATION_SCHEDULE"`

	// Auth-state fan-out between instances
	RedisURL          string `mapstructure:"REDIS_URL"`
	AuthEventsChannel string `mapstructure:"AUTH_EVENTS_CHANNEL"`

	// HTTP extras
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	MetricsEnabled     bool     `mapstructure:"METRICS_ENABLED"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Duration fields are configured in whole units, not Go duration strings, so the
	// decoder skips them and they are read here.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.SessionTTL = time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour
	cfg.SessionRestoreTimeout = time.Duration(v.GetInt("SESSION_RESTORE_TIMEOUT_SECONDS")) * time.Second
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", cfg.FirebaseServiceAccountKeyPath)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "") // Optional, inferred from credentials
	v.SetDefault("FIREBASE_API_KEY", "")
	v.SetDefault("FIREBASE_AUTH_EMULATOR_HOST", "")

	v.SetDefault("PROFILE_STORE", ProfileStoreFirestore)
	v.SetDefault("PROFILE_COLLECTION", "users")
	v.SetDefault("SQLITE_PATH", "minitorque.db")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "minitorque")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("SESSION_COOKIE_NAME", "__session")
	v.SetDefault("SESSION_ID_COOKIE_NAME", "sid")
	v.SetDefault("SESSION_TTL_HOURS", 120)
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("SESSION_COOKIE_DOMAIN", "")
	v.SetDefault("SESSION_COOKIE_SAMESITE", "Lax")
	v.SetDefault("SESSION_RESTORE_TIMEOUT_SECONDS", 10)
	v.SetDefault("SESSION_REVALIDATION_SCHEDULE", "@every 15m")

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("AUTH_EVENTS_CHANNEL", "minitorque:auth-state")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("METRICS_ENABLED", true)
}

// Validate checks the settings that would otherwise fail later in a less obvious place.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FirebaseServiceAccountKeyPath) == "" {
		return fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
	}
	if strings.TrimSpace(c.FirebaseAPIKey) == "" {
		return fmt.Errorf("FATAL: FIREBASE_API_KEY is not set. It is required for password sign-in")
	}
	switch c.ProfileStore {
	case ProfileStoreFirestore, ProfileStorePostgres, ProfileStoreSQLite:
	default:
		return fmt.Errorf("PROFILE_STORE must be one of %q, %q, %q; got %q",
			ProfileStoreFirestore, ProfileStorePostgres, ProfileStoreSQLite, c.ProfileStore)
	}
	if c.SessionTTL < time.Hour || c.SessionTTL > maxSessionTTL {
		return fmt.Errorf("SESSION_TTL_HOURS must be between 1 and %d", int(maxSessionTTL.Hours()))
	}
	return nil
}

// PostgresDSN builds the GORM DSN from the individual DB_* settings.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
