package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config описывает настройки запуска приложения. Пустой PostgresDSN
// переключает хранилище на in-memory, пустой RedisAddr — сессии на
// in-memory, пустой список брокеров отключает публикацию событий.
type Config struct {
	HTTPAddr     string
	MetricsAddr  string
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string
	SessionTTL   time.Duration
	LogLevel     string
}

// DefaultConfig возвращает базовые значения конфигурации.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		SessionTTL:  24 * time.Hour,
		LogLevel:    "info",
	}
}

// LoadConfig читает конфигурацию из .env (если есть) и переменных окружения.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if v := os.Getenv("STOREFRONT_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("STOREFRONT_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	cfg.PostgresDSN = strings.TrimSpace(os.Getenv("STOREFRONT_POSTGRES_DSN"))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("STOREFRONT_REDIS_ADDR"))
	if v := strings.TrimSpace(os.Getenv("STOREFRONT_KAFKA_BROKERS")); v != "" {
		for _, broker := range strings.Split(v, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	if v := os.Getenv("STOREFRONT_KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	if v := os.Getenv("STOREFRONT_SESSION_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil && ttl > 0 {
			cfg.SessionTTL = ttl
		}
	}
	if v := os.Getenv("STOREFRONT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}
