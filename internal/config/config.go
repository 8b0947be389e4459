package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort            string
	AppEnv             string
	AWSRegion          string
	AWSEndpointURL     string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID     string
	AWSSecretKey       string
	DynamoTables       DynamoTables
	S3BucketName       string
	JWTPrivateKeyPath  string
	JWTPublicKeyPath   string
	JWTExpiry          time.Duration
	RefreshTokenExpiry time.Duration
	SMTPHost           string
	SMTPPort           string
	SMTPFrom           string
	SMTPUsername       string
	SMTPPassword       string
	SNSRegion          string
	AllowedOrigins     []string // CORS allowed origins
	TrustProxy         bool     // honour X-Forwarded-For / X-Real-Ip from a fronting proxy
	CacheTTL           time.Duration
	RedisURL           string
	RedisPoolSize      int
	OTP                OTPConfig
	SupportURL         string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users    string
	Sessions string
	Orders   string
}

// OTPConfig controls email one-time codes.
type OTPConfig struct {
	Length         int
	Expiry         time.Duration
	VerifiedExpiry time.Duration
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", getEnv("NODE_ENV", "development")),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:    getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions: getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Orders:   getEnv("DYNAMO_TABLE_ORDERS", "orders"),
		},
		S3BucketName:       getEnv("S3_BUCKET_NAME", "karvix-uploads"),
		JWTPrivateKeyPath:  getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:   getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:          time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenExpiry: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,
		SMTPHost:           getEnv("SMTP_HOST", "localhost"),
		SMTPPort:           getEnv("SMTP_PORT", "1025"),
		SMTPFrom:           getEnv("SMTP_FROM", "noreply@karvix.app"),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SNSRegion:          getEnv("SNS_REGION", "us-east-1"),
		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxy:         getEnvBool("TRUST_PROXY", false),
		CacheTTL:           time.Duration(getEnvInt("CACHE_TTL", 300)) * time.Second,
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPoolSize:      getEnvInt("REDIS_POOL_SIZE", 10),
		OTP: OTPConfig{
			Length:         getEnvInt("OTP_LENGTH", 4),
			Expiry:         time.Duration(getEnvInt("OTP_EXPIRY", 300)) * time.Second,
			VerifiedExpiry: time.Duration(getEnvInt("OTP_VERIFIED_EXPIRY", 1800)) * time.Second,
		},
		SupportURL: getEnv("SUPPORT_URL", "https://karvix.app/support"),
	}
}

// IsProduction reports whether diagnostic conveniences (such as echoing OTPs) must be disabled.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
