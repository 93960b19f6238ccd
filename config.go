package streams

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultTargetBandwidth is the target used when a caller has no estimate
const DefaultTargetBandwidth int64 = 3000000

// HTTPConfig configures HTTPFetcher
type HTTPConfig struct {
	UserAgent string            `yaml:"user_agent"`
	Timeout   time.Duration     `yaml:"timeout" validate:"gt=0"`
	Headers   map[string]string `yaml:"headers"`
}

// DownloadConfig configures Session.Download
type DownloadConfig struct {
	Workers int `yaml:"workers" validate:"gte=1"`
	Retries int `yaml:"retries" validate:"gte=0"`
}

// Config holds everything a Resolver can be tuned with
type Config struct {
	TargetBandwidth  int64          `yaml:"target_bandwidth" validate:"gt=0"`
	CustomScheme     string         `yaml:"custom_scheme"`
	AllowUnknownTags bool           `yaml:"allow_unknown_tags"`
	VerifyOutput     bool           `yaml:"verify_output"`
	LogLevel         string         `yaml:"log_level" validate:"oneof=panic fatal error warn warning info debug trace"`
	HTTP             HTTPConfig     `yaml:"http"`
	Download         DownloadConfig `yaml:"download"`
}

// DefaultConfig returns the configuration used when none is given
func DefaultConfig() *Config {
	return &Config{
		TargetBandwidth:  DefaultTargetBandwidth,
		CustomScheme:     "custom-hls",
		AllowUnknownTags: true,
		LogLevel:         "info",
		HTTP: HTTPConfig{
			UserAgent: "go-streams/1.0",
			Timeout:   15 * time.Second,
			Headers:   map[string]string{},
		},
		Download: DownloadConfig{Workers: 4, Retries: 2},
	}
}

// LoadConfig reads a YAML file over the defaults and validates the result
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the bounds of every field
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the logrus level named by LogLevel, info when unparsable
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
