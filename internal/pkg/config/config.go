package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-level config
type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	LogLevel string `yaml:"level"`
}

// MongoDBConfig carries the environment-scoped defaults read by the command
// layer (uri, database, collection) and the pool settings used by the task
// handler process.
type MongoDBConfig struct {
	URI                   string `yaml:"uri"`
	Database              string `yaml:"database"`
	Collection            string `yaml:"collection"`
	MaxPoolSize           uint64 `yaml:"max_pool_size"`
	MinPoolSize           uint64 `yaml:"min_pool_size"`
	MaxConnIdleMinutes    int    `yaml:"max_conn_idle_minutes"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
}

func (m MongoDBConfig) MaxConnIdleTime() time.Duration {
	return time.Duration(m.MaxConnIdleMinutes) * time.Minute
}

func (m MongoDBConfig) ConnectTimeout() time.Duration {
	return time.Duration(m.ConnectTimeoutSeconds) * time.Second
}

// DispatchConfig selects how the command layer reaches the task handlers.
type DispatchConfig struct {
	Transport       string `yaml:"transport"`
	BaseURL         string `yaml:"base_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	QueueKey        string `yaml:"queue_key"`
	ReplyTTLSeconds int    `yaml:"reply_ttl_seconds"`
}

func (d DispatchConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func (d DispatchConfig) ReplyTTL() time.Duration {
	return time.Duration(d.ReplyTTLSeconds) * time.Second
}

// Redis connection config
type RedisConfig struct {
	Addr                  string `yaml:"addr"`
	Password              string `yaml:"password"`
	DB                    int    `yaml:"db"`
	EnableTLS             bool   `yaml:"enable_tls"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
	CertContent           string `yaml:"cert_content"`
}

func (r RedisConfig) ConnectTimeout() time.Duration {
	return time.Duration(r.ConnectTimeoutSeconds) * time.Second
}

type OtelConfig struct {
	ServiceName  string `yaml:"service_name"`
	CollectorURL string `yaml:"collector_url"`
}

// AppConfig is the main config struct that holds all configs
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LogConfig      `yaml:"logging"`
	MongoDB  MongoDBConfig  `yaml:"mongodb"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Redis    RedisConfig    `yaml:"redis"`
	Otel     OtelConfig     `yaml:"otel"`
}

func assignDefaultConfigValues(cfg *AppConfig) *AppConfig {

	// server config defaults
	cfg.Server.Port = GetEnvOrDefaultAsInt("SERVER_PORT", orInt(cfg.Server.Port, 8080))

	// log config defaults
	cfg.Logging.LogLevel = GetEnvOrDefaultAsString("LOGGING_LEVEL", orString(cfg.Logging.LogLevel, "info"))

	// MongoDB config defaults, uri is allowed to stay empty until first use
	cfg.MongoDB.URI = GetEnvOrDefaultAsString("MONGODB_URI", cfg.MongoDB.URI)
	cfg.MongoDB.Database = GetEnvOrDefaultAsString("MONGODB_DATABASE", cfg.MongoDB.Database)
	cfg.MongoDB.Collection = GetEnvOrDefaultAsString("MONGODB_COLLECTION", cfg.MongoDB.Collection)
	cfg.MongoDB.MaxPoolSize = GetEnvOrDefaultAsUint64("MONGODB_MAX_POOL_SIZE", orUint64(cfg.MongoDB.MaxPoolSize, 10))
	cfg.MongoDB.MinPoolSize = GetEnvOrDefaultAsUint64("MONGODB_MIN_POOL_SIZE", cfg.MongoDB.MinPoolSize)
	cfg.MongoDB.MaxConnIdleMinutes = GetEnvOrDefaultAsInt("MONGODB_MAX_CONN_IDLE_MINUTES", orInt(cfg.MongoDB.MaxConnIdleMinutes, 30))
	cfg.MongoDB.ConnectTimeoutSeconds = GetEnvOrDefaultAsInt("MONGODB_CONNECT_TIMEOUT_SECONDS", orInt(cfg.MongoDB.ConnectTimeoutSeconds, 10))

	// dispatch config defaults
	cfg.Dispatch.Transport = GetEnvOrDefaultAsString("DISPATCH_TRANSPORT", orString(cfg.Dispatch.Transport, consts.TransportLocal))
	cfg.Dispatch.BaseURL = GetEnvOrDefaultAsString("DISPATCH_BASE_URL", orString(cfg.Dispatch.BaseURL, consts.DefaultHTTPBaseURL))
	cfg.Dispatch.TimeoutSeconds = GetEnvOrDefaultAsInt("DISPATCH_TIMEOUT_SECONDS",
		orInt(cfg.Dispatch.TimeoutSeconds, int(consts.DefaultTaskTimeout/time.Second)))
	cfg.Dispatch.QueueKey = GetEnvOrDefaultAsString("DISPATCH_QUEUE_KEY", orString(cfg.Dispatch.QueueKey, consts.DefaultQueueKey))
	cfg.Dispatch.ReplyTTLSeconds = GetEnvOrDefaultAsInt("DISPATCH_REPLY_TTL_SECONDS",
		orInt(cfg.Dispatch.ReplyTTLSeconds, int(consts.DefaultReplyTTL/time.Second)))

	// Redis config defaults
	cfg.Redis.Addr = GetEnvOrDefaultAsString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("REDIS_DB", cfg.Redis.DB)
	if v, ok := os.LookupEnv("REDIS_ENABLE_TLS"); ok {
		cfg.Redis.EnableTLS = v == "1" || strings.EqualFold(v, "true")
	}
	cfg.Redis.ConnectTimeoutSeconds = GetEnvOrDefaultAsInt("REDIS_CONNECT_TIMEOUT_SECONDS", orInt(cfg.Redis.ConnectTimeoutSeconds, 10))
	cfg.Redis.CertContent = GetEnvOrDefaultAsString("REDIS_TLS_CERT", cfg.Redis.CertContent)

	// tracing defaults, an empty collector url disables the exporter
	cfg.Otel.ServiceName = GetEnvOrDefaultAsString("OTEL_SERVICE_NAME", orString(cfg.Otel.ServiceName, consts.DefaultServiceName))
	cfg.Otel.CollectorURL = GetEnvOrDefaultAsString("OTEL_COLLECTOR_URL", cfg.Otel.CollectorURL)

	return cfg
}

// LoadFromConfigFilePath loads and parses config file into AppConfig
func LoadFromConfigFilePath(configPath string) (*AppConfig, error) {

	// #nosec G304: config path comes from the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.Error("Failed to read config file", err, slog.String("path", configPath))
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("Failed to unmarshal config", err)
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaultCfg := assignDefaultConfigValues(&cfg)

	if err := validateConfig(defaultCfg); err != nil {
		logger.Error("Config validation failed", err)
		return nil, err
	}

	logger.Info("Configuration loaded successfully", slog.String("path", configPath))

	return defaultCfg, nil
}

// LoadFromEnv builds the configuration from environment variables only. It is
// used when no config file exists, e.g. by the CLI inside a test runner.
func LoadFromEnv() (*AppConfig, error) {
	cfg := assignDefaultConfigValues(&AppConfig{})
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *AppConfig) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	mongo := cfg.MongoDB
	if mongo.MaxPoolSize < 1 || mongo.MaxPoolSize > 100 {
		return fmt.Errorf("mongodb.max_pool_size must be between 1 and 100, got %d", mongo.MaxPoolSize)
	}
	if mongo.MinPoolSize > mongo.MaxPoolSize {
		return fmt.Errorf("mongodb.min_pool_size must not exceed max_pool_size, got %d > %d",
			mongo.MinPoolSize,
			mongo.MaxPoolSize)
	}
	if mongo.MaxConnIdleMinutes < 1 || mongo.MaxConnIdleMinutes > 60 {
		return fmt.Errorf("mongodb.max_conn_idle_minutes must be between 1 and 60, got %d", mongo.MaxConnIdleMinutes)
	}
	if mongo.ConnectTimeoutSeconds < 1 || mongo.ConnectTimeoutSeconds > 60 {
		return fmt.Errorf("mongodb.connect_timeout_seconds must be between 1 and 60, got %d", mongo.ConnectTimeoutSeconds)
	}

	dispatch := cfg.Dispatch
	switch dispatch.Transport {
	case consts.TransportLocal, consts.TransportHTTP, consts.TransportRedis:
	default:
		return fmt.Errorf("dispatch.transport must be one of %s, %s, %s, got %q",
			consts.TransportLocal, consts.TransportHTTP, consts.TransportRedis, dispatch.Transport)
	}
	if dispatch.TimeoutSeconds < 1 || dispatch.TimeoutSeconds > 600 {
		return fmt.Errorf("dispatch.timeout_seconds must be between 1 and 600, got %d", dispatch.TimeoutSeconds)
	}
	if dispatch.ReplyTTLSeconds < 1 {
		return fmt.Errorf("dispatch.reply_ttl_seconds must be positive, got %d", dispatch.ReplyTTLSeconds)
	}
	if dispatch.Transport == consts.TransportRedis && cfg.Redis.Addr == "" {
		return errors.New("redis.addr is required when dispatch.transport is redis")
	}

	return nil
}

// GetEnvOrDefaultAsInt returns the value of the given env variable
// as an int or the default value if not set or invalid.
func GetEnvOrDefaultAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return int(value)
}

// GetEnvOrDefaultAsUint64 returns the value of the env variable
// as uint64 or the default value if not set or invalid.
func GetEnvOrDefaultAsUint64(key string, defaultValue uint64) uint64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvOrDefaultAsString(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return defaultVal
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orUint64(v, def uint64) uint64 {
	if v == 0 {
		return def
	}
	return v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// LoadEnvFile loads a .env file into the process environment when present.
// Variables already set are not overwritten.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadFromConfig loads the optional .env file, then the config file named by
// CONFIG_PATH. A missing default config file falls back to the environment.
func LoadFromConfig() (*AppConfig, error) {
	if err := LoadEnvFile(GetEnvOrDefaultAsString("ENV_FILE", ".env")); err != nil {
		logger.Warn("Ignoring env file", slog.String("error", err.Error()))
	}

	configPath, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit || strings.TrimSpace(configPath) == "" {
		configPath = "configs/config.yaml"
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			return LoadFromEnv()
		}
	}

	cfg, err := LoadFromConfigFilePath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	return cfg, nil
}
