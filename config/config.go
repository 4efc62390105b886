package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName string

	HTTPHost    string
	HTTPPort    string
	GRPCHost    string
	GRPCPort    string
	MetricsAddr string

	LogLevel  string
	LogFormat string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QueueName          string
	QueueConsumerGroup string
	QueueBlockTimeout  time.Duration

	// Consumer failure handling: "ack" keeps the swallow-and-continue
	// behaviour, "dead-letter" retries with backoff and then parks the entry.
	FailurePolicy  string
	MaxAttempts    int
	RetryBackoff   []time.Duration
	RetryInterval  time.Duration
	ProcessTimeout time.Duration
	DrainTimeout   time.Duration
	ClaimMinIdle   time.Duration
	ClaimInterval  time.Duration
	MaxDeliveries  int

	EmailProvider string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPTimeout   time.Duration
	SenderAddress string
	SenderName    string
	AWSRegion     string
	MailRateLimit int
	TemplatesDir  string

	LoggerHost       string
	LoggerBindAddr   string
	TelemetryTimeout time.Duration
	TelemetryBuffer  int
	TelemetryLevel   string

	MySQLDSN     string
	MySQLMaxOpen int
	MySQLMaxIdle int
	MySQLMaxLife time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		AppName: getEnv("APP_NAME", "notification-service"),

		HTTPHost:    getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		GRPCHost:    getEnv("GRPC_HOST", "0.0.0.0"),
		GRPCPort:    getEnv("GRPC_PORT", "9090"),
		MetricsAddr: getEnv("METRICS_ADDR", "0.0.0.0:9100"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		QueueName:          getEnv("QUEUE_NAME", "EmailQueue"),
		QueueConsumerGroup: getEnv("QUEUE_CONSUMER_GROUP", "email-consumers"),
		QueueBlockTimeout:  getDuration("QUEUE_BLOCK_TIMEOUT", 5*time.Second),

		FailurePolicy:  strings.ToLower(getEnv("EMAIL_FAILURE_POLICY", "ack")),
		MaxAttempts:    getInt("EMAIL_MAX_ATTEMPTS", 3),
		RetryBackoff:   getDurations("EMAIL_RETRY_BACKOFF", []time.Duration{5 * time.Second, 30 * time.Second, 2 * time.Minute}),
		RetryInterval:  getDuration("EMAIL_RETRY_INTERVAL", 5*time.Second),
		ProcessTimeout: getDuration("EMAIL_PROCESS_TIMEOUT", 30*time.Second),
		DrainTimeout:   getDuration("EMAIL_DRAIN_TIMEOUT", 30*time.Second),
		ClaimMinIdle:   getDuration("EMAIL_CLAIM_MIN_IDLE", time.Minute),
		ClaimInterval:  getDuration("EMAIL_CLAIM_INTERVAL", 30*time.Second),
		MaxDeliveries:  getInt("EMAIL_MAX_DELIVERIES", 5),

		EmailProvider: strings.ToLower(getEnv("EMAIL_PROVIDER", "smtp")),
		SMTPHost:      getEnv("EMAIL_HOST", ""),
		SMTPPort:      getInt("EMAIL_PORT", 587),
		SMTPUser:      getEnv("EMAIL_AUTH_USER", ""),
		SMTPPassword:  getEnv("EMAIL_AUTH_PASS", ""),
		SMTPTimeout:   getDuration("SMTP_TIMEOUT", 15*time.Second),
		SenderAddress: getEnv("EMAIL_SENDER_ADDR", ""),
		SenderName:    getEnv("EMAIL_SENDER_NAME", ""),
		AWSRegion:     getEnv("AWS_REGION", "eu-central-1"),
		MailRateLimit: getInt("MAIL_RATE_LIMIT", 0),
		TemplatesDir:  getEnv("TEMPLATES_DIR", ""),

		LoggerHost:       getEnv("LOGGER_HOST", "localhost:50051"),
		LoggerBindAddr:   getEnv("LOGGER_BIND_ADDR", "0.0.0.0:50051"),
		TelemetryTimeout: getDuration("TELEMETRY_TIMEOUT", 3*time.Second),
		TelemetryBuffer:  getInt("TELEMETRY_BUFFER", 256),
		TelemetryLevel:   getEnv("TELEMETRY_LEVEL", "info"),

		MySQLDSN:     getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/logs?parseTime=true"),
		MySQLMaxOpen: getInt("MYSQL_MAX_OPEN", 10),
		MySQLMaxIdle: getInt("MYSQL_MAX_IDLE", 5),
		MySQLMaxLife: getDuration("MYSQL_MAX_LIFETIME", 5*time.Minute),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getDurations parses a comma separated list such as "5s,30s,2m".
// Any malformed entry falls back to the whole default list.
func getDurations(key string, defaultValue []time.Duration) []time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil || d < 0 {
			return defaultValue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
