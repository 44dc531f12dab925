// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/seekbox/internal/domain/media"
)

// Pipeline backends.
const (
	BackendSim = "sim"
	BackendMPV = "mpv"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Media    MediaConfig    `yaml:"media"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr         string      `yaml:"addr" default:":8080"`
	ControlToken string      `yaml:"control_token"`
	Hooks        HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// ViewerConfig represents seek and transport configuration.
type ViewerConfig struct {
	SettleDelayMs int `yaml:"settle_delay_ms" default:"80" validate:"gte=1,lte=5000"`
	ScrollStepMs  int `yaml:"scroll_step_ms" default:"500" validate:"gte=1,lte=60000"`
	FrameRate     int `yaml:"frame_rate" default:"25" validate:"gte=1,lte=240"`
}

// PipelineConfig selects and configures the playback backend.
type PipelineConfig struct {
	Backend  string         `yaml:"backend" default:"sim" validate:"oneof=sim mpv"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MediaConfig names the media opened at startup.
type MediaConfig struct {
	URI string `yaml:"uri"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse decodes configuration from YAML, then applies environment
// overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.overrideFromEnv()
	// Struct tags are static; Set only fails on malformed tags.
	_ = defaults.Set(&cfg)
	return &cfg
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SEEKBOX_CONTROL_TOKEN"); v != "" {
		c.Server.ControlToken = v
	}
	if v := os.Getenv("SEEKBOX_MEDIA"); v != "" {
		c.Media.URI = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// SettleDelay returns the seek settle delay.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Viewer.SettleDelayMs) * time.Millisecond
}

// ScrollStep returns the time moved per scroll tick.
func (c *Config) ScrollStep() time.Duration {
	return time.Duration(c.Viewer.ScrollStepMs) * time.Millisecond
}

// FrameRate returns the configured frame rate.
func (c *Config) FrameRate() media.FrameRate {
	return media.FrameRate{Num: c.Viewer.FrameRate, Den: 1}
}
