package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	JWTTTL    time.Duration

	DB        DatabaseConfig
	Redis     RedisConfig
	S3        S3Config
	PaySSD    PaySSDConfig
	Mail      MailConfig
	Store     StoreConfig
	Payout    PayoutConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// S3Config contains object storage configuration. Endpoint is optional and
// only needed for S3-compatible providers.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

// PaySSDConfig contains credentials for the PaySSD hosted checkout gateway.
type PaySSDConfig struct {
	BaseURL          string
	SecretKey        string
	WebhookSecret    string
	WebhookTolerance time.Duration
}

// MailConfig selects and configures the outbound mail provider.
type MailConfig struct {
	Provider     string // smtp, resend or log
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	ResendAPIKey string
}

// StoreConfig contains storefront behaviour settings.
type StoreConfig struct {
	SellerName      string
	SiteURL         string
	AdminEmail      string
	AllowedOrigins  []string
	AutoApprove     bool
	CatalogCacheTTL time.Duration
	MaxReceiptBytes int64
}

// PayoutConfig holds the public payout details used until an admin saves
// the first settings version.
type PayoutConfig struct {
	ExchangeRate      string
	MomoNumber        string
	MomoName          string
	EquityAccountName string
	EquityAccountSSP  string
	EquityAccountUSD  string
	EquityBranch      string
}

// RateLimitConfig configures the per-IP limiter on public forms.
type RateLimitConfig struct {
	FormLimit  int
	FormWindow time.Duration
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	StatusCheckInterval   time.Duration
	StatusCheckStaleAfter time.Duration
	StatusCheckMaxAge     time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = databaseFromEnv()

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Object storage
	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "eu-west-1"),
		Bucket:          getEnv("S3_BUCKET", "agency-storefront"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PublicBaseURL:   strings.TrimSuffix(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	// PaySSD gateway
	cfg.PaySSD = PaySSDConfig{
		BaseURL:       getEnv("PAYSSD_BASE_URL", "https://api.payssd.com/v1"),
		SecretKey:     getEnv("PAYSSD_SECRET_KEY", ""),
		WebhookSecret: getEnv("PAYSSD_WEBHOOK_SECRET", ""),
	}

	// Mail
	cfg.Mail = MailConfig{
		Provider:     strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
		From:         getEnv("MAIL_FROM", "Studio <no-reply@localhost>"),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
	}

	// Store
	cfg.Store = StoreConfig{
		SellerName:      getEnv("SELLER_NAME", "Studio"),
		SiteURL:         strings.TrimSuffix(getEnv("SITE_URL", "http://localhost:3000"), "/"),
		AdminEmail:      getEnv("ADMIN_NOTIFICATION_EMAIL", ""),
		AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "localhost:3000,127.0.0.1:3000")),
		AutoApprove:     getEnvBool("PAYMENT_AUTO_APPROVE", false),
		MaxReceiptBytes: int64(getEnvInt("MAX_RECEIPT_BYTES", 5*1024*1024)),
	}

	// Payout defaults (site_settings is authoritative once saved)
	cfg.Payout = PayoutConfig{
		ExchangeRate:      getEnv("PAYOUT_EXCHANGE_RATE", "1"),
		MomoNumber:        getEnv("PAYOUT_MOMO_NUMBER", ""),
		MomoName:          getEnv("PAYOUT_MOMO_NAME", ""),
		EquityAccountName: getEnv("PAYOUT_EQUITY_ACCOUNT_NAME", ""),
		EquityAccountSSP:  getEnv("PAYOUT_EQUITY_ACCOUNT_SSP", ""),
		EquityAccountUSD:  getEnv("PAYOUT_EQUITY_ACCOUNT_USD", ""),
		EquityBranch:      getEnv("PAYOUT_EQUITY_BRANCH", ""),
	}

	cfg.RateLimit.FormLimit = getEnvInt("FORM_RATE_LIMIT", 5)

	// Durations
	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "12h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.S3.PresignTTL, err = parseDurationEnv("S3_PRESIGN_TTL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid S3_PRESIGN_TTL: %w", err)
	}
	if cfg.PaySSD.WebhookTolerance, err = parseDurationEnv("PAYSSD_WEBHOOK_TOLERANCE", "5m"); err != nil {
		return nil, fmt.Errorf("invalid PAYSSD_WEBHOOK_TOLERANCE: %w", err)
	}
	if cfg.Store.CatalogCacheTTL, err = parseDurationEnv("CATALOG_CACHE_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_TTL: %w", err)
	}
	if cfg.RateLimit.FormWindow, err = parseDurationEnv("FORM_RATE_WINDOW", "10m"); err != nil {
		return nil, fmt.Errorf("invalid FORM_RATE_WINDOW: %w", err)
	}
	if cfg.Worker.StatusCheckInterval, err = parseDurationEnv("STATUS_CHECK_INTERVAL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid STATUS_CHECK_INTERVAL: %w", err)
	}
	if cfg.Worker.StatusCheckStaleAfter, err = parseDurationEnv("STATUS_CHECK_STALE_AFTER", "5m"); err != nil {
		return nil, fmt.Errorf("invalid STATUS_CHECK_STALE_AFTER: %w", err)
	}
	if cfg.Worker.StatusCheckMaxAge, err = parseDurationEnv("STATUS_CHECK_MAX_AGE", "72h"); err != nil {
		return nil, fmt.Errorf("invalid STATUS_CHECK_MAX_AGE: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings. The admin CLI uses it so
// that maintenance commands do not need the full server environment.
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()
	db := databaseFromEnv()
	if err := db.validate(); err != nil {
		return nil, err
	}
	return &db, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" || d.User == "" || d.Name == "" {
		return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.DB.validate(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set for authentication")
	}
	switch c.Mail.Provider {
	case "log":
	case "smtp":
		if c.Mail.SMTPHost == "" {
			return errors.New("MAIL_PROVIDER=smtp requires SMTP_HOST")
		}
	case "resend":
		if c.Mail.ResendAPIKey == "" {
			return errors.New("MAIL_PROVIDER=resend requires RESEND_API_KEY")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q (expected smtp, resend or log)", c.Mail.Provider)
	}
	if c.RateLimit.FormLimit <= 0 {
		return errors.New("FORM_RATE_LIMIT must be positive")
	}
	if c.Store.MaxReceiptBytes <= 0 {
		return errors.New("MAX_RECEIPT_BYTES must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
