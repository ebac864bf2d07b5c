package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	GRPCPort string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret       []byte
	JWTAudience     string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string

	MediaRoot string
	MediaURL  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	SummaryAPIKey  string
	SummaryBaseURL string
	SummaryModel   string
	SummaryTimeout time.Duration

	RateLimitRPS int
}

var ErrMissingSecret = errors.New("JWT_SECRET must be set")

// LoadConfig reads the process environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8000"),
		GRPCPort: getEnv("GRPC_PORT", "9090"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    getEnv("DATABASE_URL", "user=postgres password=postgres dbname=grandpa sslmode=disable"),

		JWTSecret:       []byte(os.Getenv("JWT_SECRET")),
		JWTAudience:     os.Getenv("JWT_AUDIENCE"),
		JWTIssuer:       os.Getenv("JWT_ISSUER"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MediaRoot: getEnv("MEDIA_ROOT", "media"),
		MediaURL:  getEnv("MEDIA_URL", "/media/"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		SummaryAPIKey:  firstEnv("SUMMARY_API_KEY", "GEMINI_API_KEY", "GEMINI_KEY"),
		SummaryBaseURL: getEnv("SUMMARY_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		SummaryModel:   getEnv("SUMMARY_MODEL", "gemini-2.0-flash"),
		SummaryTimeout: getDuration("SUMMARY_TIMEOUT", 20*time.Second),

		RateLimitRPS: getInt("RATE_LIMIT_RPS", 50),
	}

	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUsername
	}

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return ErrMissingSecret
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
