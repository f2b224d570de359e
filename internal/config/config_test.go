// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1280, cfg.Browser.WindowWidth)
	assert.Equal(t, 10*time.Second, cfg.Protocol.CallTimeout)
	assert.Equal(t, 0.0, cfg.Protocol.MaxRPS)
	assert.Equal(t, 5*time.Second, cfg.Snapshot.FrameWait)
	assert.Equal(t, 80, cfg.Snapshot.NameLimit)
	assert.Equal(t, 1, cfg.Snapshot.MinAXEntries)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("snapshot.min_ax_entries", 3)
	v.Set("browser.headless", false)
	v.Set("snapshot.tier_timeout", "2s")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Snapshot.MinAXEntries)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 2*time.Second, cfg.Snapshot.TierTimeout)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window width", func(c *Config) { c.Browser.WindowWidth = 0 }},
		{"zero call timeout", func(c *Config) { c.Protocol.CallTimeout = 0 }},
		{"negative max rps", func(c *Config) { c.Protocol.MaxRPS = -1 }},
		{"zero frame wait", func(c *Config) { c.Snapshot.FrameWait = 0 }},
		{"zero tier timeout", func(c *Config) { c.Snapshot.TierTimeout = 0 }},
		{"zero name limit", func(c *Config) { c.Snapshot.NameLimit = 0 }},
		{"zero ax entry floor", func(c *Config) { c.Snapshot.MinAXEntries = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
