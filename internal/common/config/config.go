// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig                `mapstructure:"app"`
	Server   ServerConfig             `mapstructure:"server"`
	Hub      HubConfig                `mapstructure:"hub"`
	Store    StoreConfig              `mapstructure:"store"`
	Database DatabaseConfig           `mapstructure:"database"`
	Archive  ArchiveConfig            `mapstructure:"archive"`
	Handlers map[string]HandlerConfig `mapstructure:"handlers"`
	Logging  LoggingConfig            `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig controls the HTTP listener that serves health, metrics, the
// bridge socket and the message ingress endpoint.
type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

// HubConfig tunes the coordinator event loop and the bridge.
type HubConfig struct {
	QueueSize          int    `mapstructure:"queue_size"`
	AwaitSideEffects   bool   `mapstructure:"await_side_effects"`
	DrainTimeout       int    `mapstructure:"drain_timeout"`        // milliseconds
	TabsQueryTimeout   int    `mapstructure:"tabs_query_timeout"`   // milliseconds
	ValidatePayloads   bool   `mapstructure:"validate_payloads"`
	EventRegistryPath  string `mapstructure:"event_registry_path"`  // empty = embedded registry
	BridgeWriteTimeout int    `mapstructure:"bridge_write_timeout"` // milliseconds
}

// StoreConfig selects the state store backend.
type StoreConfig struct {
	Backend      string `mapstructure:"backend"` // memory | redis
	KeyPrefix    string `mapstructure:"key_prefix"`
	MaxTxRetries int    `mapstructure:"max_tx_retries"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // milliseconds
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
	MaxRetry  int      `mapstructure:"max_retries"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address     string `mapstructure:"address"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	PoolSize    int    `mapstructure:"pool_size"`
	DialTimeout int    `mapstructure:"dial_timeout"` // milliseconds
}

// ArchiveConfig enables the sinks that mirror completed applications.
type ArchiveConfig struct {
	Postgres struct {
		Enabled bool   `mapstructure:"enabled"`
		Table   string `mapstructure:"table"`
	} `mapstructure:"postgres"`
	Elasticsearch struct {
		Enabled bool   `mapstructure:"enabled"`
		Index   string `mapstructure:"index"`
	} `mapstructure:"elasticsearch"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	Email struct {
		Enabled bool     `mapstructure:"enabled"`
		Region  string   `mapstructure:"region"`
		From    string   `mapstructure:"from"`
		To      []string `mapstructure:"to"`
	} `mapstructure:"email"`
}

// AnyEnabled reports whether at least one sink is switched on.
func (a ArchiveConfig) AnyEnabled() bool {
	return a.Postgres.Enabled || a.Elasticsearch.Enabled || a.SNS.Enabled || a.Email.Enabled
}

// HandlerConfig holds the settings applicable to every event handler.
type HandlerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
