package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Line      LineConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Billing   BillingConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Bootstrap BootstrapConfig
}

type ServerConfig struct {
	Port          string
	GinMode       string
	Environment   string
	PublicBaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Params   string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LineConfig holds LINE Login and Messaging API credentials.
type LineConfig struct {
	ChannelID      string
	ChannelSecret  string
	MessagingToken string
	APIBaseURL     string
	PushEnabled    bool
}

type StorageConfig struct {
	Driver          string // local, s3
	LocalDir        string
	PublicPath      string
	MaxUploadBytes  int64
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// BillingConfig drives the monthly bill run.
type BillingConfig struct {
	Enabled  bool
	CronSpec string
	Timezone string
	DueDay   int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

type LogConfig struct {
	Level  string
	Format string
}

// BootstrapConfig is the super admin created on first migration.
type BootstrapConfig struct {
	AdminUsername string
	AdminPassword string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			GinMode:       getEnv("GIN_MODE", "debug"),
			Environment:   getEnv("ENVIRONMENT", "development"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "wastebill"),
			Params:   getEnv("DB_PARAMS", "charset=utf8mb4&parseTime=True&loc=Local"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "1h")),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Line: LineConfig{
			ChannelID:      getEnv("LINE_CHANNEL_ID", ""),
			ChannelSecret:  getEnv("LINE_CHANNEL_SECRET", ""),
			MessagingToken: getEnv("LINE_MESSAGING_ACCESS_TOKEN", ""),
			APIBaseURL:     getEnv("LINE_API_BASE_URL", "https://api.line.me"),
			PushEnabled:    getEnvBool("LINE_PUSH_ENABLED", true),
		},
		Storage: StorageConfig{
			Driver:          getEnv("STORAGE_DRIVER", "local"),
			LocalDir:        getEnv("UPLOAD_DIR", "./uploads"),
			PublicPath:      getEnv("UPLOAD_PUBLIC_PATH", "/uploads"),
			MaxUploadBytes:  int64(getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
			Region:          getEnv("AWS_REGION", "ap-southeast-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "wastebill-slips"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Billing: BillingConfig{
			Enabled:  getEnvBool("BILLING_CRON_ENABLED", true),
			CronSpec: getEnv("BILLING_CRON_SPEC", "0 14 1 * *"),
			Timezone: getEnv("BILLING_TIMEZONE", "Asia/Bangkok"),
			DueDay:   getEnvInt("BILLING_DUE_DAY", 15),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			Capacity:       getEnvInt("RATE_LIMIT_CAPACITY", 30),
			RefillTokens:   getEnvInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: parseDuration(getEnv("RATE_LIMIT_REFILL_INTERVAL", "2s")),
			TTL:            parseDuration(getEnv("RATE_LIMIT_TTL", "10m")),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", "superadmin"),
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}

	if config.Billing.DueDay < 1 || config.Billing.DueDay > 28 {
		return nil, fmt.Errorf("BILLING_DUE_DAY must be between 1 and 28, got %d", config.Billing.DueDay)
	}
	if _, err := time.LoadLocation(config.Billing.Timezone); err != nil {
		return nil, fmt.Errorf("invalid BILLING_TIMEZONE %q: %w", config.Billing.Timezone, err)
	}

	return config, nil
}

// DSN builds a go-sql-driver/mysql connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.User, c.Password, c.Host, c.Port, c.DBName)
	if c.Params != "" {
		dsn += "?" + c.Params
	}
	return dsn
}

// Addr returns host:port for the redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Location resolves the billing timezone; Load has already validated it.
func (c *BillingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer %s=%s, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default 1h", s)
		return time.Hour
	}
	return duration
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
