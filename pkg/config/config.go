// Package config loads and validates application configuration from YAML or
// TOML files with environment-variable overrides. It provides typed structs
// for the engine, the request tracker, and every outer dependency (Postgres,
// Kafka, Redis) plus logging and metrics.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Engine   EngineConfig   `yaml:"engine" toml:"engine"`
	Tracker  TrackerConfig  `yaml:"tracker" toml:"tracker"`
	Postgres PostgresConfig `yaml:"postgres" toml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka" toml:"kafka"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" toml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout" toml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" toml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" toml:"shutdown_timeout"`
	DefaultPageSize int           `yaml:"defaultPageSize" toml:"default_page_size"`
}

// EngineConfig controls the search engine. MaxResults and RelevanceEpsilon
// are fixed for the lifetime of an engine.
type EngineConfig struct {
	StopWords        []string `yaml:"stopWords" toml:"stop_words"`
	MaxResults       int      `yaml:"maxResults" toml:"max_results"`
	RelevanceEpsilon float64  `yaml:"relevanceEpsilon" toml:"relevance_epsilon"`
}

// TrackerConfig sizes the request tracker window and its snapshot cadence.
type TrackerConfig struct {
	Window           int           `yaml:"window" toml:"window"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval" toml:"snapshot_interval"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled" toml:"enabled"`
	Host            string        `yaml:"host" toml:"host"`
	Port            int           `yaml:"port" toml:"port"`
	Database        string        `yaml:"database" toml:"database"`
	User            string        `yaml:"user" toml:"user"`
	Password        string        `yaml:"password" toml:"password"`
	SSLMode         string        `yaml:"sslMode" toml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"maxOpenConns" toml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" toml:"conn_max_lifetime"`
	ConnectAttempts int           `yaml:"connectAttempts" toml:"connect_attempts"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled" toml:"enabled"`
	Brokers       []string    `yaml:"brokers" toml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup" toml:"consumer_group"`
	Topics        KafkaTopics `yaml:"topics" toml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Documents string `yaml:"documents" toml:"documents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" toml:"enabled"`
	Addr     string        `yaml:"addr" toml:"addr"`
	Password string        `yaml:"password" toml:"password"`
	DB       int           `yaml:"db" toml:"db"`
	PoolSize int           `yaml:"poolSize" toml:"pool_size"`
	CacheTTL time.Duration `yaml:"cacheTTL" toml:"cache_ttl"`

	// OpTimeout bounds each cache read or write. BreakerThreshold
	// consecutive failures stop cache traffic for BreakerReset.
	OpTimeout        time.Duration `yaml:"opTimeout" toml:"op_timeout"`
	BreakerThreshold int           `yaml:"breakerThreshold" toml:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breakerReset" toml:"breaker_reset"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	Port    int  `yaml:"port" toml:"port"`
}

// Load reads a YAML or TOML config file (if provided), applies
// environment-variable overrides and validates the result. Missing values
// keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		case ".toml":
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("config file %s: unsupported extension %q (want .yaml, .yml or .toml)", path, ext)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with defaults for local development. The engine
// defaults match the classic search-server constants: five results and a
// 1e-6 relevance tolerance, with a 1440-request tracker window.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			DefaultPageSize: 5,
		},
		Engine: EngineConfig{
			StopWords:        []string{},
			MaxResults:       5,
			RelevanceEpsilon: 1e-6,
		},
		Tracker: TrackerConfig{
			Window:           1440,
			SnapshotInterval: time.Minute,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "searchserver",
			User:            "searchserver",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectAttempts: 5,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "searchserver-group",
			Topics: KafkaTopics{
				Documents: "search-documents",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,

			OpTimeout:        100 * time.Millisecond,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Engine.MaxResults <= 0 {
		return fmt.Errorf("engine.maxResults must be positive, got %d", c.Engine.MaxResults)
	}
	if c.Engine.RelevanceEpsilon < 0 {
		return fmt.Errorf("engine.relevanceEpsilon must not be negative, got %g", c.Engine.RelevanceEpsilon)
	}
	if c.Tracker.Window <= 0 {
		return fmt.Errorf("tracker.window must be positive, got %d", c.Tracker.Window)
	}
	if c.Tracker.SnapshotInterval <= 0 {
		return fmt.Errorf("tracker.snapshotInterval must be positive, got %v", c.Tracker.SnapshotInterval)
	}
	if c.Server.DefaultPageSize <= 0 {
		return fmt.Errorf("server.defaultPageSize must be positive, got %d", c.Server.DefaultPageSize)
	}
	return nil
}

// applyEnvOverrides reads SS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SS_ENGINE_STOP_WORDS"); v != "" {
		cfg.Engine.StopWords = strings.Fields(v)
	}
	if v := os.Getenv("SS_ENGINE_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxResults = n
		}
	}
	if v := os.Getenv("SS_TRACKER_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracker.Window = n
		}
	}
	if v := os.Getenv("SS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
