// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// on top, and lets environment variables override any key.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Archive.SNS.TopicARN == "" {
		if val := os.Getenv("ARCHIVE_SNS_TOPIC_ARN"); val != "" {
			cfg.Archive.SNS.TopicARN = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "jtracker-hub"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}

	if cfg.Hub.QueueSize == 0 {
		cfg.Hub.QueueSize = 256
	}
	if cfg.Hub.DrainTimeout == 0 {
		cfg.Hub.DrainTimeout = 10000
	}
	if cfg.Hub.TabsQueryTimeout == 0 {
		cfg.Hub.TabsQueryTimeout = 5000
	}
	if cfg.Hub.BridgeWriteTimeout == 0 {
		cfg.Hub.BridgeWriteTimeout = 5000
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreBackendMemory
	}
	if cfg.Store.KeyPrefix == "" {
		cfg.Store.KeyPrefix = "jtracker"
	}
	if cfg.Store.MaxTxRetries == 0 {
		cfg.Store.MaxTxRetries = 10
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.ConnectTimeout == 0 {
		cfg.Database.Postgres.ConnectTimeout = 5000
	}
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}
	if cfg.Database.Redis.DialTimeout == 0 {
		cfg.Database.Redis.DialTimeout = 5000
	}
	if cfg.Database.Elasticsearch.MaxRetry == 0 {
		cfg.Database.Elasticsearch.MaxRetry = 3
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Archive.Postgres.Table == "" {
		cfg.Archive.Postgres.Table = "archived_applications"
	}
	if cfg.Archive.Email.Region == "" {
		cfg.Archive.Email.Region = cfg.Archive.SNS.Region
	}
	if cfg.Archive.Elasticsearch.Index == "" {
		cfg.Archive.Elasticsearch.Index = "applications"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, handler := range cfg.Handlers {
		if handler.Timeout == 0 {
			handler.Timeout = 5000
		}
		cfg.Handlers[key] = handler
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when store.backend is redis")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", StoreBackendMemory, StoreBackendRedis, cfg.Store.Backend)
	}

	if cfg.Hub.QueueSize < 0 {
		return fmt.Errorf("hub.queue_size must not be negative")
	}

	if cfg.Archive.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when archive.postgres is enabled")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when archive.postgres is enabled")
		}
	}

	if cfg.Archive.Elasticsearch.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when archive.elasticsearch is enabled")
	}

	if cfg.Archive.SNS.Enabled && cfg.Archive.SNS.TopicARN == "" {
		return fmt.Errorf("archive.sns.topic_arn is required when archive.sns is enabled")
	}

	if cfg.Archive.Email.Enabled && (cfg.Archive.Email.From == "" || len(cfg.Archive.Email.To) == 0) {
		return fmt.Errorf("archive.email.from and archive.email.to are required when archive.email is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetHandlerConfig retrieves handler-specific configuration with fallback to defaults
func GetHandlerConfig(cfg *Config, handlerName string) HandlerConfig {
	if handler, exists := cfg.Handlers[handlerName]; exists {
		return handler
	}

	return HandlerConfig{
		Enabled: true,
		Timeout: 5000,
	}
}

// IsHandlerEnabled checks if a specific handler is enabled
func IsHandlerEnabled(cfg *Config, handlerName string) bool {
	if handler, exists := cfg.Handlers[handlerName]; exists {
		return handler.Enabled
	}
	return true
}
