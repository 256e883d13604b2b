package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port           string
	AppEnv         string
	LogLevel       string
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration
	TokenCacheSize int

	RedisAddr string

	AMQPURL           string
	NotifyExchange    string
	NotifyBuffer      int
	NotifySendTimeout time.Duration

	ReconcileInterval       time.Duration
	StrictStatusTransitions bool
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration from the process environment without
// touching any .env file.
func FromEnv() Config {
	return Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		AppEnv:         getEnvOrDefault("APP_ENV", "development"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 60*24, time.Minute),
		TokenCacheSize: getIntEnv("TOKEN_CACHE_SIZE", 1024),

		RedisAddr: getEnvOrDefault("REDIS_ADDR", ""),

		AMQPURL:           getEnvOrDefault("AMQP_URL", ""),
		NotifyExchange:    getEnvOrDefault("NOTIFY_EXCHANGE", "storefront.events"),
		NotifyBuffer:      getIntEnv("NOTIFY_BUFFER", 256),
		NotifySendTimeout: getDurationEnv("NOTIFY_SEND_TIMEOUT_MS", 250, time.Millisecond),

		ReconcileInterval:       getDurationEnv("RECONCILE_INTERVAL", 300, time.Second),
		StrictStatusTransitions: getBoolEnv("STRICT_STATUS_TRANSITIONS", false),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv accepts zero so that RECONCILE_INTERVAL=0 can switch the
// sweep off; negative or malformed values fall back to the default.
func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
