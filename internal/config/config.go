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

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	AppURL        string        `mapstructure:"APP_URL"` // Public URL of the web app, used for payment onboarding redirects

	// Database Configuration
	DBHost              string        `mapstructure:"DB_HOST"`
	DBPort              string        `mapstructure:"DB_PORT"`
	DBUser              string        `mapstructure:"DB_USER"`
	DBPassword          string        `mapstructure:"DB_PASSWORD"`
	DBName              string        `mapstructure:"DB_NAME"`
	DBSSLMode           string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone          string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns      int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns      int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime   time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBConnectRetries    int           `mapstructure:"DB_CONNECT_RETRIES"`
	DBConnectRetryDelay time.Duration `mapstructure:"DB_CONNECT_RETRY_DELAY_MS"`
	DBAutoMigrate       bool          `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Redis (onboarding drafts)
	RedisURL string        `mapstructure:"REDIS_URL"`
	DraftTTL time.Duration `mapstructure:"DRAFT_TTL_HOURS"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Stripe Connect
	StripeSecretKey      string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret  string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripeAccountCountry string `mapstructure:"STRIPE_ACCOUNT_COUNTRY"`

	// Uploads
	UploadBackend        string `mapstructure:"UPLOAD_BACKEND"` // "cloudinary" or "local"
	CloudinaryCloudName  string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey     string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret  string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder     string `mapstructure:"CLOUDINARY_FOLDER"`
	LocalUploadPath      string `mapstructure:"LOCAL_UPLOAD_PATH"`
	PublicUploadBaseURL  string `mapstructure:"PUBLIC_UPLOAD_BASE_URL"`
	MaxProfilePhotoBytes int64  `mapstructure:"MAX_PROFILE_PHOTO_BYTES"`
	MaxLicenseDocBytes   int64  `mapstructure:"MAX_LICENSE_DOCUMENT_BYTES"`

	// Cron Jobs
	PaymentReconcileSchedule string `mapstructure:"PAYMENT_RECONCILE_SCHEDULE"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("APP_URL", "http://localhost:3000")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "therapylink_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("DB_CONNECT_RETRY_DELAY_MS", 2000)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("DRAFT_TTL_HOURS", 72)

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("STRIPE_ACCOUNT_COUNTRY", "US")

	v.SetDefault("UPLOAD_BACKEND", "local")
	v.SetDefault("CLOUDINARY_FOLDER", "therapylink")
	v.SetDefault("LOCAL_UPLOAD_PATH", "./uploads")
	v.SetDefault("PUBLIC_UPLOAD_BASE_URL", "http://localhost:8080/uploads")
	v.SetDefault("MAX_PROFILE_PHOTO_BYTES", 4<<20)
	v.SetDefault("MAX_LICENSE_DOCUMENT_BYTES", 10<<20)

	// Empty disables the sweep; webhooks and the completion check still reconcile.
	v.SetDefault("PAYMENT_RECONCILE_SCHEDULE", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.DBConnectRetryDelay = time.Duration(v.GetInt("DB_CONNECT_RETRY_DELAY_MS")) * time.Millisecond
	cfg.DraftTTL = time.Duration(v.GetInt("DRAFT_TTL_HOURS")) * time.Hour

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DSN returns the GORM postgres DSN built from the individual DB_* parameters.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.FirebaseServiceAccountKeyPath) == "" {
		return fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
	}
	if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
		return fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", c.FirebaseServiceAccountKeyPath)
	}
	if strings.TrimSpace(c.StripeSecretKey) == "" {
		return fmt.Errorf("FATAL: STRIPE_SECRET_KEY is not set")
	}
	if strings.TrimSpace(c.StripeWebhookSecret) == "" {
		return fmt.Errorf("FATAL: STRIPE_WEBHOOK_SECRET is not set")
	}
	switch c.UploadBackend {
	case "local":
	case "cloudinary":
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return fmt.Errorf("FATAL: UPLOAD_BACKEND=cloudinary requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	default:
		return fmt.Errorf("FATAL: unknown UPLOAD_BACKEND %q (expected \"cloudinary\" or \"local\")", c.UploadBackend)
	}
	return nil
}
