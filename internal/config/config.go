package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Store    StoreConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Delivery DeliveryConfig
	Report   ReportConfig
	Archive  ArchiveConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// StoreConfig selects the repository backend: "postgres" or "memory".
type StoreConfig struct {
	Driver string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type StorageConfig struct {
	Type     string
	BasePath string
	BaseURL  string
}

// DeliveryConfig tunes the outbound report mail worker pool
type DeliveryConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
	SweepEvery  time.Duration
	SendTimeout time.Duration
}

type ReportConfig struct {
	ExportConcurrency int
	PDFOwnerPassword  string
}

type ArchiveConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	config.Store = StoreConfig{
		Driver: getEnv("STORE_DRIVER", "postgres"),
	}

	// SMTP configuration
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "payroll@localhost"),
		FromName: getEnv("SMTP_FROM_NAME", "Payroll"),
	}

	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./storage"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/files"),
	}

	// Delivery worker pool
	workers, err := getEnvInt("DELIVERY_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	queueSize, err := getEnvInt("DELIVERY_QUEUE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := getEnvInt("DELIVERY_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	backoff, err := getEnvDuration("DELIVERY_BACKOFF", 2*time.Second)
	if err != nil {
		return nil, err
	}
	sweep, err := getEnvDuration("DELIVERY_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	sendTimeout, err := getEnvDuration("DELIVERY_SEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	config.Delivery = DeliveryConfig{
		Workers:     workers,
		QueueSize:   queueSize,
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		SweepEvery:  sweep,
		SendTimeout: sendTimeout,
	}

	exportConcurrency, err := getEnvInt("EXPORT_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}

	config.Report = ReportConfig{
		ExportConcurrency: exportConcurrency,
		PDFOwnerPassword:  getEnv("PDF_OWNER_PASSWORD", ""),
	}

	archiveInterval, err := getEnvDuration("ARCHIVE_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	// two years
	retention, err := getEnvDuration("ARCHIVE_RETENTION", 2*365*24*time.Hour)
	if err != nil {
		return nil, err
	}

	config.Archive = ArchiveConfig{
		Interval:  archiveInterval,
		Retention: retention,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.Store.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.PDFOwnerPasswordMissing() {
		return fmt.Errorf("PDF_OWNER_PASSWORD is required outside development")
	}
	if c.Delivery.Workers < 1 {
		return fmt.Errorf("DELIVERY_WORKERS must be at least 1")
	}
	if c.Delivery.QueueSize < 1 {
		return fmt.Errorf("DELIVERY_QUEUE_SIZE must be at least 1")
	}
	if c.Delivery.MaxAttempts < 1 {
		return fmt.Errorf("DELIVERY_MAX_ATTEMPTS must be at least 1")
	}
	if c.Report.ExportConcurrency < 1 {
		return fmt.Errorf("EXPORT_CONCURRENCY must be at least 1")
	}
	return nil
}

func (c *Config) PDFOwnerPasswordMissing() bool {
	return c.App.Env != "development" && c.Report.PDFOwnerPassword == ""
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string = strings.Split(value, ",")
	return result
}

// Level maps LOG_LEVEL to a slog level, defaulting to info.
func (a AppConfig) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
