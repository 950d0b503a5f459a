package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`

	MySQLDSN     string `yaml:"mysql_dsn"`
	MySQLMaxOpen int    `yaml:"mysql_max_open"`
	MySQLMaxIdle int    `yaml:"mysql_max_idle"`

	// RedisAddr left empty disables the advisory lock backend; the mutex
	// then degrades to allow-through and the product row lock stands alone.
	RedisAddr      string `yaml:"redis_addr"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`

	JaegerEndpoint string `yaml:"jaeger_endpoint"`
}

func Default() Config {
	return Config{
		HTTPAddr:       ":8080",
		LogLevel:       "info",
		MySQLDSN:       "root:root@tcp(localhost:3306)/orders?parseTime=true",
		MySQLMaxOpen:   50,
		MySQLMaxIdle:   25,
		LockTTLSeconds: 30,
	}
}

// Load reads the optional YAML file at path, then overlays environment
// variables. A missing path is not an error; a present but unreadable or
// malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MySQLDSN = getEnv("MYSQL_DSN", cfg.MySQLDSN)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.JaegerEndpoint = getEnv("JAEGER_ENDPOINT", cfg.JaegerEndpoint)
	cfg.LockTTLSeconds = getEnvInt("REDIS_LOCK_TTL", cfg.LockTTLSeconds)
	cfg.MySQLMaxOpen = getEnvInt("MYSQL_MAX_OPEN", cfg.MySQLMaxOpen)
	cfg.MySQLMaxIdle = getEnvInt("MYSQL_MAX_IDLE", cfg.MySQLMaxIdle)

	return cfg, nil
}

func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
