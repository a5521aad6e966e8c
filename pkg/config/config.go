package config

import (
	"fmt"
	"os"
	"strconv"
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
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	RateLimit struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerMinute float64 `yaml:"requests_per_minute"`
	} `yaml:"rate_limit"`
	Polygon struct {
		APIKey            string        `yaml:"api_key"`
		BaseURL           string        `yaml:"base_url"`
		Timeout           time.Duration `yaml:"timeout"`
		PriceLookbackDays int           `yaml:"price_lookback_days"`
		NewsLookbackDays  int           `yaml:"news_lookback_days"`
		NewsLimit         int           `yaml:"news_limit"`
	} `yaml:"polygon"`
	Model struct {
		BundlePath string `yaml:"bundle_path"`
		Sentiment  struct {
			ServiceURL string        `yaml:"service_url"`
			Timeout    time.Duration `yaml:"timeout"`
			BatchSize  int           `yaml:"batch_size"`
			MaxTokens  int           `yaml:"max_tokens"`
		} `yaml:"sentiment"`
	} `yaml:"model"`
	Cache struct {
		Type  string        `yaml:"type"` // memory, redis or layered
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
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

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.Polygon.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("MODEL_BUNDLE_PATH"); v != "" {
		c.Model.BundlePath = v
	}
	if v := os.Getenv("SENTIMENT_SERVICE_URL"); v != "" {
		c.Model.Sentiment.ServiceURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 5
	}
	if c.Polygon.BaseURL == "" {
		c.Polygon.BaseURL = "https://api.polygon.io"
	}
	if c.Polygon.Timeout == 0 {
		c.Polygon.Timeout = 10 * time.Second
	}
	if c.Polygon.PriceLookbackDays == 0 {
		c.Polygon.PriceLookbackDays = 45
	}
	if c.Polygon.NewsLookbackDays == 0 {
		c.Polygon.NewsLookbackDays = 7
	}
	if c.Polygon.NewsLimit == 0 {
		c.Polygon.NewsLimit = 100
	}
	if c.Model.Sentiment.Timeout == 0 {
		c.Model.Sentiment.Timeout = 30 * time.Second
	}
	if c.Model.Sentiment.BatchSize == 0 {
		c.Model.Sentiment.BatchSize = 32
	}
	if c.Model.Sentiment.MaxTokens == 0 {
		c.Model.Sentiment.MaxTokens = 512
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Kafka.Compression == "" {
		c.Kafka.Compression = "gzip"
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 60 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Polygon.APIKey == "" && os.Getenv("POLYGON_API_KEY") == "" {
		return fmt.Errorf("polygon.api_key is required")
	}
	if c.Model.BundlePath == "" {
		return fmt.Errorf("model.bundle_path is required")
	}
	switch c.Cache.Type {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Type)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	return nil
}
