package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Sources struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
		// Candidate paths per feed, tried in order. Several endpoints moved
		// in production; precedence is configuration, not code.
		Alerts        []string `yaml:"alerts_paths"`
		Notifications []string `yaml:"notifications_paths"`
		Compliance    []string `yaml:"compliance_paths"`
		Audit         []string `yaml:"audit_paths"`
		Anomalies     []string `yaml:"anomalies_paths"`
		Latency       []string `yaml:"latency_paths"`
		Impact        []string `yaml:"impact_paths"`
		Writeback     struct {
			NotificationsMarkOne string `yaml:"notifications_mark_one"`
			NotificationsMarkAll string `yaml:"notifications_mark_all"`
			AnomaliesAck         string `yaml:"anomalies_ack"`
		} `yaml:"writeback"`
	} `yaml:"sources"`
	Live struct {
		StreamURL    string        `yaml:"stream_url"`
		PollPaths    []string      `yaml:"poll_paths"`
		PollInterval time.Duration `yaml:"poll_interval"`
		PollLimit    int           `yaml:"poll_limit"`
		Capacity     int           `yaml:"capacity"`
	} `yaml:"live"`
	Feed struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"feed"`
	Fusion struct {
		Threshold float64 `yaml:"threshold"`
	} `yaml:"fusion"`
	Refresh struct {
		FeedInterval    time.Duration `yaml:"feed_interval"`
		HeatmapInterval time.Duration `yaml:"heatmap_interval"`
	} `yaml:"refresh"`
	History struct {
		Key      string `yaml:"key"`
		Capacity int    `yaml:"capacity"`
	} `yaml:"history"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		LogTopic     string   `yaml:"log_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SOURCES_BASE_URL"); v != "" {
		c.Sources.BaseURL = v
	}
	if v := os.Getenv("LIVE_STREAM_URL"); v != "" {
		c.Live.StreamURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Live.PollInterval <= 0 {
		c.Live.PollInterval = 3 * time.Second
	}
	if c.Live.PollLimit <= 0 {
		c.Live.PollLimit = 50
	}
	if c.Live.Capacity <= 0 {
		c.Live.Capacity = 200
	}
	if c.Feed.Capacity <= 0 {
		c.Feed.Capacity = 50
	}
	if c.Fusion.Threshold <= 0 {
		c.Fusion.Threshold = 0.25
	}
	if c.Refresh.FeedInterval <= 0 {
		c.Refresh.FeedInterval = 5 * time.Second
	}
	if c.Refresh.HeatmapInterval <= 0 {
		c.Refresh.HeatmapInterval = 30 * time.Second
	}
	if c.History.Key == "" {
		c.History.Key = "regime:history"
	}
	if c.History.Capacity <= 0 {
		c.History.Capacity = 20
	}
	if c.Sources.Timeout <= 0 {
		c.Sources.Timeout = 10 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Sources.BaseURL == "" {
		return fmt.Errorf("sources.base_url is required")
	}
	for name, paths := range map[string][]string{
		"alerts":        c.Sources.Alerts,
		"notifications": c.Sources.Notifications,
		"compliance":    c.Sources.Compliance,
		"audit":         c.Sources.Audit,
		"anomalies":     c.Sources.Anomalies,
		"latency":       c.Sources.Latency,
		"impact":        c.Sources.Impact,
	} {
		if len(paths) == 0 {
			return fmt.Errorf("sources.%s_paths cannot be empty", name)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
