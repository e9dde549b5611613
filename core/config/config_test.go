package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Matching.Timezone)
	assert.Equal(t, 30, cfg.Matching.SlotStepMinutes)
	assert.Equal(t, 120, cfg.Matching.SameDayLeadMinutes)
	assert.Equal(t, 10, cfg.Matching.MaxResults)
	assert.Equal(t, "require_all", cfg.Matching.DefaultPolicy)
	assert.Equal(t, 15*time.Second, cfg.Matching.RequestTimeout)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Redis.Enabled())

	got, err := GetSafe()
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	content := `
matching:
  timezone: Europe/Berlin
  horizon_days: 14
  default_policy: majority
redis:
  addr: localhost:6379
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.Matching.Timezone)
	assert.Equal(t, 14, cfg.Matching.HorizonDays)
	assert.Equal(t, "majority", cfg.Matching.DefaultPolicy)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SMARTSCHEDULE_MATCHING_MAX_RESULTS", "5")
	t.Setenv("SMARTSCHEDULE_SERVER_PORT", "9000")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Matching.MaxResults)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := map[string]func(c *Config){
		"timezone": func(c *Config) { c.Matching.Timezone = "Mars/Olympus" },
		"step":     func(c *Config) { c.Matching.SlotStepMinutes = 7 },
		"horizon":  func(c *Config) { c.Matching.HorizonDays = 0 },
		"results":  func(c *Config) { c.Matching.MaxCandidates = 2; c.Matching.MaxResults = 10 },
		"policy":   func(c *Config) { c.Matching.DefaultPolicy = "everyone" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(t.TempDir())
			require.NoError(t, err)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
