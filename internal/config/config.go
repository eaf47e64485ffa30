package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers []string
	JWTSecret    string
	HTTPAddr     string
	MetricsAddr  string
	OTLPEndpoint string
	LogLevel     slog.Level

	Gateway       GatewayConfig
	Payment       PaymentConfig
	Notifications NotificationsConfig
	Mail          MailConfig

	VerifyLockTTL time.Duration
}

type GatewayConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type PaymentConfig struct {
	Currency  string
	ReturnURL string
}

type NotificationsConfig struct {
	Topic       string
	DLQTopic    string
	Group       string
	MaxAttempts int
}

type MailConfig struct {
	ResendAPIKey string
	From         string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		PostgresDSN:  getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=travel sslmode=disable"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKER", "localhost:9092")),
		JWTSecret:    getEnv("JWT_SECRET", "supersecret"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		LogLevel:     parseLevel(getEnv("LOG_LEVEL", "info")),
		Gateway: GatewayConfig{
			BaseURL:   getEnv("CHAPA_BASE_URL", "https://api.chapa.co/v1"),
			SecretKey: os.Getenv("CHAPA_SECRET_KEY"),
			Timeout:   getDuration("CHAPA_TIMEOUT", 15*time.Second),
		},
		Payment: PaymentConfig{
			Currency:  getEnv("PAYMENT_CURRENCY", "ETB"),
			ReturnURL: getEnv("PAYMENT_RETURN_URL", "http://localhost:8080/payments/callback"),
		},
		Notifications: NotificationsConfig{
			Topic:       getEnv("NOTIFICATIONS_TOPIC", "notifications"),
			DLQTopic:    getEnv("NOTIFICATIONS_DLQ_TOPIC", "notifications-dlq"),
			Group:       getEnv("NOTIFICATIONS_GROUP", "travel-booking-notifications"),
			MaxAttempts: getInt("NOTIFICATIONS_MAX_ATTEMPTS", 5),
		},
		Mail: MailConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			From:         getEnv("MAIL_FROM", "Travel Booking <onboarding@resend.dev>"),
		},
		VerifyLockTTL: getDuration("VERIFY_LOCK_TTL", 30*time.Second),
	}

	if cfg.Gateway.SecretKey == "" {
		slog.Warn("CHAPA_SECRET_KEY is not set, gateway calls will be rejected")
	}

	slog.Info("config loaded",
		"postgres_dsn", cfg.PostgresDSN,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"http_addr", cfg.HTTPAddr,
		"gateway_base_url", cfg.Gateway.BaseURL,
		"gateway_timeout", cfg.Gateway.Timeout)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(v string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo
	}
	return level
}
