package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var (
	// ErrInvalidConfig возвращается, когда конфигурация не прошла валидацию
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Драйверы доставки уведомлений
const (
	NotificationDriverNone  = "none"
	NotificationDriverHTTP  = "http"
	NotificationDriverKafka = "kafka"
)

// Config конфигурация сервиса
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Scheduling    SchedulingConfig    `toml:"scheduling"`
	Notifications NotificationsConfig `toml:"notifications"`
	RateLimit     RateLimitConfig     `toml:"rate_limit"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// SchedulingConfig настройки расчета слотов и допуска бронирований
type SchedulingConfig struct {
	// Timezone IANA имя зоны, в которой интерпретируются даты и время слотов
	Timezone string `toml:"timezone"`
	// EnforceSlotAlignment запрещает бронировать время, не совпадающее со сгенерированным слотом
	EnforceSlotAlignment bool `toml:"enforce_slot_alignment"`
}

// Location возвращает зону планирования
func (c SchedulingConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// NotificationsConfig настройки доставки событий бронирований
type NotificationsConfig struct {
	Driver       string `toml:"driver"`
	URL          string `toml:"url"`
	Timeout      int    `toml:"timeout"`
	KafkaBrokers string `toml:"kafka_brokers"`
	Topic        string `toml:"topic"`
}

// RateLimitConfig настройки ограничения запросов к публичным ручкам
type RateLimitConfig struct {
	Enabled       bool   `toml:"enabled"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Limit         int    `toml:"limit"`
	WindowSeconds int    `toml:"window_seconds"`
	FailOpen      bool   `toml:"fail_open"`
}

// Window окно rate limiter
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// Load читает конфигурацию из TOML файла
// Перед чтением подгружается .env (если есть), секреты берутся из окружения
func Load(path string) (*Config, error) {
	// .env опционален
	_ = godotenv.Load()

	cfg := defaults()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "scheduling-service",
		},
		Notifications: NotificationsConfig{
			Driver:  NotificationDriverNone,
			Timeout: 5,
			Topic:   "booking-events",
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     "localhost:6379",
			Limit:         60,
			WindowSeconds: 60,
			FailOpen:      true,
		},
	}
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("DB_PASSWORD"); ok {
		cfg.Database.Password = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		cfg.RateLimit.RedisPassword = v
	}
	if v, ok := os.LookupEnv("SCHEDULING_TIMEZONE"); ok && v != "" {
		cfg.Scheduling.Timezone = v
	}
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	}

	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database.host and database.dbname are required", ErrInvalidConfig)
	}

	if _, err := c.Scheduling.Location(); err != nil {
		return fmt.Errorf("%w: scheduling.timezone: %v", ErrInvalidConfig, err)
	}

	switch c.Notifications.Driver {
	case NotificationDriverNone:
	case NotificationDriverHTTP:
		if c.Notifications.URL == "" {
			return fmt.Errorf("%w: notifications.url is required for http driver", ErrInvalidConfig)
		}
	case NotificationDriverKafka:
		if strings.TrimSpace(c.Notifications.KafkaBrokers) == "" || c.Notifications.Topic == "" {
			return fmt.Errorf("%w: notifications.kafka_brokers and notifications.topic are required for kafka driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown notifications.driver %q", ErrInvalidConfig, c.Notifications.Driver)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RedisAddr == "" {
			return fmt.Errorf("%w: rate_limit.redis_addr is required", ErrInvalidConfig)
		}
		if c.RateLimit.Limit <= 0 || c.RateLimit.WindowSeconds <= 0 {
			return fmt.Errorf("%w: rate_limit.limit and rate_limit.window_seconds must be positive", ErrInvalidConfig)
		}
	}

	return nil
}
