// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Protocol ProtocolConfig `mapstructure:"protocol" yaml:"protocol"`
	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string `mapstructure:"args" yaml:"args"`
	WindowWidth     int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight    int      `mapstructure:"window_height" yaml:"window_height"`

	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// ProtocolConfig tunes the out-of-process protocol layer shared by every tier.
type ProtocolConfig struct {
	// CallTimeout bounds a single protocol round trip.
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
	// MaxRPS paces protocol calls across many successive tool invocations.
	// Zero disables pacing.
	MaxRPS float64 `mapstructure:"max_rps" yaml:"max_rps"`
}

// SnapshotConfig tunes the tiered discovery engine.
type SnapshotConfig struct {
	// FrameWait bounds the resolution of a single frame path segment.
	FrameWait time.Duration `mapstructure:"frame_wait" yaml:"frame_wait"`
	// TierTimeout bounds one collector attempt; a timeout is that tier's
	// failure and triggers escalation, not a fatal error.
	TierTimeout time.Duration `mapstructure:"tier_timeout" yaml:"tier_timeout"`
	// NameLimit caps the stored length of an element's derived name.
	NameLimit int `mapstructure:"name_limit" yaml:"name_limit"`
	// MinAXEntries is the escalation predicate between the accessibility
	// tier and the layout tier: fewer entries than this escalates. The
	// default of 1 reproduces "escalate only on zero".
	MinAXEntries int `mapstructure:"min_ax_entries" yaml:"min_ax_entries"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "framescope")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.post_load_wait", "1500ms")

	// -- Protocol --
	v.SetDefault("protocol.call_timeout", "10s")
	v.SetDefault("protocol.max_rps", 0.0)

	// -- Snapshot --
	v.SetDefault("snapshot.frame_wait", "5s")
	v.SetDefault("snapshot.tier_timeout", "15s")
	v.SetDefault("snapshot.name_limit", 80)
	v.SetDefault("snapshot.min_ax_entries", 1)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive")
	}
	if c.Protocol.CallTimeout <= 0 {
		return fmt.Errorf("protocol.call_timeout must be a positive duration")
	}
	if c.Protocol.MaxRPS < 0 {
		return fmt.Errorf("protocol.max_rps must not be negative")
	}
	if c.Snapshot.FrameWait <= 0 {
		return fmt.Errorf("snapshot.frame_wait must be a positive duration")
	}
	if c.Snapshot.TierTimeout <= 0 {
		return fmt.Errorf("snapshot.tier_timeout must be a positive duration")
	}
	if c.Snapshot.NameLimit <= 0 {
		return fmt.Errorf("snapshot.name_limit must be a positive integer")
	}
	if c.Snapshot.MinAXEntries < 1 {
		return fmt.Errorf("snapshot.min_ax_entries must be at least 1")
	}
	return nil
}
