package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
}

type QuotaConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type WeightsConfig struct {
	Fundamental float64 `yaml:"fundamental"`
	Technical   float64 `yaml:"technical"`
	ESG         float64 `yaml:"esg"`
}

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
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Upstreams struct {
		Fundamental UpstreamConfig `yaml:"fundamental"`
		Technical   UpstreamConfig `yaml:"technical"`
		Sentiment   UpstreamConfig `yaml:"sentiment"`
	} `yaml:"upstreams"`
	Resilience struct {
		Breaker struct {
			FailureThreshold int           `yaml:"failure_threshold"`
			Cooldown         time.Duration `yaml:"cooldown"`
		} `yaml:"breaker"`
		Retry struct {
			MaxRetries int           `yaml:"max_retries"`
			BaseDelay  time.Duration `yaml:"base_delay"`
			Jitter     bool          `yaml:"jitter"`
		} `yaml:"retry"`
		Quotas       map[string]QuotaConfig `yaml:"quotas"`
		StageTimeout time.Duration          `yaml:"stage_timeout"`
	} `yaml:"resilience"`
	Synthesis struct {
		Weights       map[string]WeightsConfig `yaml:"weights"`
		BuyThreshold  int                      `yaml:"buy_threshold"`
		SellThreshold int                      `yaml:"sell_threshold"`
		MinConfidence float64                  `yaml:"min_confidence"`
		Levels        struct {
			EntryATR   float64   `yaml:"entry_atr"`
			StopATR    float64   `yaml:"stop_atr"`
			TakeProfit []float64 `yaml:"take_profit_atr"`
		} `yaml:"levels"`
	} `yaml:"synthesis"`
	Cache struct {
		Enabled bool          `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
			Prefix   string `yaml:"prefix"`
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
			BatchSize    int           `yaml:"batch_size"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
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

	if v := os.Getenv("FUNDAMENTAL_API_URL"); v != "" {
		c.Upstreams.Fundamental.BaseURL = v
	}
	if v := os.Getenv("TECHNICAL_API_URL"); v != "" {
		c.Upstreams.Technical.BaseURL = v
	}
	if v := os.Getenv("SENTIMENT_API_URL"); v != "" {
		c.Upstreams.Sentiment.BaseURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Upstreams.Fundamental.BaseURL == "" {
		return fmt.Errorf("upstreams.fundamental.base_url is required")
	}
	if c.Upstreams.Technical.BaseURL == "" {
		return fmt.Errorf("upstreams.technical.base_url is required")
	}
	if c.Upstreams.Sentiment.BaseURL == "" {
		return fmt.Errorf("upstreams.sentiment.base_url is required")
	}
	if len(c.Synthesis.Weights) == 0 {
		return fmt.Errorf("synthesis.weights cannot be empty")
	}
	for name, w := range c.Synthesis.Weights {
		sum := w.Fundamental + w.Technical + w.ESG
		if sum < 0.99 || sum > 1.01 {
			return fmt.Errorf("synthesis.weights.%s must sum to 1.0, got %.2f", name, sum)
		}
	}
	if c.Synthesis.BuyThreshold <= c.Synthesis.SellThreshold {
		return fmt.Errorf("synthesis.buy_threshold must exceed sell_threshold")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
