package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Data struct {
		Dataset       string        `yaml:"dataset" default:"brent"`
		PricesPath    string        `yaml:"prices_path"`
		AltPricesPath string        `yaml:"alt_prices_path"`
		EventsPath    string        `yaml:"events_path"`
		ArtifactPath  string        `yaml:"artifact_path" default:"change_points.json"`
		ExpectedStart string        `yaml:"expected_start"`
		ExpectedEnd   string        `yaml:"expected_end"`
		Frequency     time.Duration `yaml:"frequency" default:"96h"`
	} `yaml:"data"`

	Inference struct {
		MinSegmentFraction float64       `yaml:"min_segment_fraction" default:"0.05"`
		NumChains          int           `yaml:"num_chains" default:"4"`
		NumDraws           int           `yaml:"num_draws" default:"2000"`
		NumTune            int           `yaml:"num_tune" default:"1000"`
		Seed               uint64        `yaml:"seed" default:"42"`
		CredibleInterval   float64       `yaml:"credible_interval" default:"0.94"`
		RHatThreshold      float64       `yaml:"rhat_threshold" default:"1.01"`
		ESSFloor           float64       `yaml:"ess_floor" default:"100"`
		MaxDivergences     int           `yaml:"max_divergences" default:"25"`
		Timeout            time.Duration `yaml:"timeout" default:"10m"`
	} `yaml:"inference"`

	Sinks struct {
		Store   bool `yaml:"store"`   // persist runs to ClickHouse
		Publish bool `yaml:"publish"` // emit runs to Kafka
	} `yaml:"sinks"`

	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"cpdetect"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`

	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"change-points"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`

	Cache struct {
		Redis    bool          `yaml:"redis"`
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl" default:"5m"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file, applying defaults first.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
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

	if v := os.Getenv("PRICES_PATH"); v != "" {
		c.Data.PricesPath = v
	}
	if v := os.Getenv("EVENTS_PATH"); v != "" {
		c.Data.EventsPath = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Data.PricesPath == "" && c.Data.AltPricesPath == "" {
		return fmt.Errorf("data.prices_path is required")
	}
	if c.Inference.NumChains < 2 {
		return fmt.Errorf("inference.num_chains must be >= 2, got %d", c.Inference.NumChains)
	}
	if c.Inference.NumDraws <= 0 {
		return fmt.Errorf("inference.num_draws must be > 0")
	}
	if f := c.Inference.MinSegmentFraction; f <= 0 || f >= 0.5 {
		return fmt.Errorf("inference.min_segment_fraction must be in (0, 0.5), got %g", f)
	}
	if ci := c.Inference.CredibleInterval; ci <= 0 || ci >= 1 {
		return fmt.Errorf("inference.credible_interval must be in (0, 1), got %g", ci)
	}
	if c.Sinks.Store && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when sinks.store is enabled")
	}
	if c.Sinks.Publish && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when sinks.publish is enabled")
	}
	return nil
}

// PricesPath prefers the primary path, falling back to the alternate export.
func (c *Config) PricesPath() string {
	if c.Data.PricesPath != "" {
		if _, err := os.Stat(c.Data.PricesPath); err == nil {
			return c.Data.PricesPath
		}
	}
	if c.Data.AltPricesPath != "" {
		return c.Data.AltPricesPath
	}
	return c.Data.PricesPath
}
