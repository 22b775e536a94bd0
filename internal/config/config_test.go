package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/vintr/impressd/internal/config"
	"codeberg.org/vintr/impressd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setArgs replaces os.Args for one test so the go test flags do not
// leak into the flag parser.
func setArgs(t *testing.T, args ...string) {
	t.Helper()

	oldArgs := os.Args
	os.Args = append([]string{"impressd"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "impressd.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return configPath
}

func TestLoad(t *testing.T) {
	setArgs(t)

	configPath := writeConfigFile(t, `
interval = 33
ratio = 0.75
time = 1500
scroll-speed = 240.0
log-level = "debug"
telemetry = true
database = "/path/to/telemetry.db"

[[targets]]
name = "hero"
x = 100.0
y = 2000.0
width = 640.0
height = 360.0
`)
	t.Setenv("IMPRESSD_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 33, cfg.Interval, "Expected Interval 33")
	assert.Equal(t, 0.75, cfg.Ratio, "Expected Ratio 0.75")
	assert.Equal(t, 1500, cfg.Time, "Expected Time 1500")
	assert.Equal(t, 240.0, cfg.ScrollSpeed, "Expected ScrollSpeed 240")
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.True(t, cfg.Telemetry, "Expected Telemetry true")
	assert.Equal(t, "/path/to/telemetry.db", cfg.TelemetryDB, "Expected TelemetryDB /path/to/telemetry.db")

	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "hero", cfg.Targets[0].Name)
	assert.Equal(t, 2000.0, cfg.Targets[0].Y)
}

func TestLoadDefaults(t *testing.T) {
	setArgs(t)
	t.Setenv("IMPRESSD_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, 16, cfg.Interval, "Expected default Interval 16")
	assert.Equal(t, 0.5, cfg.Ratio, "Expected default Ratio 0.5")
	assert.Equal(t, 1000, cfg.Time, "Expected default Time 1000")
	assert.Equal(t, 1280.0, cfg.ViewportWidth, "Expected default ViewportWidth 1280")
	assert.Equal(t, 800.0, cfg.ViewportHeight, "Expected default ViewportHeight 800")
	assert.False(t, cfg.Telemetry, "Expected default Telemetry false")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
	assert.Empty(t, cfg.Targets)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	setArgs(t)

	configPath := writeConfigFile(t, `
This is not a valid TOML file
`)
	t.Setenv("IMPRESSD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	setArgs(t)

	configPath := writeConfigFile(t, `
log-level = "invalid"
`)
	t.Setenv("IMPRESSD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestLogLevelFlag(t *testing.T) {
	setArgs(t, "--log-level", "debug")
	t.Setenv("IMPRESSD_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Interval: 16,
			Ratio:    0.5,
			Time:     1000,
			LogLevel: "info",
		}
	}

	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantCode errors.ErrorCode
	}{
		{
			name:     "zero interval",
			mutate:   func(c *config.Config) { c.Interval = 0 },
			wantCode: errors.ErrInvalidInterval,
		},
		{
			name:     "ratio above one",
			mutate:   func(c *config.Config) { c.Ratio = 1.2 },
			wantCode: errors.ErrRatioOutOfRange,
		},
		{
			name:     "negative time",
			mutate:   func(c *config.Config) { c.Time = -1 },
			wantCode: errors.ErrNegativeTime,
		},
		{
			name:     "telemetry without database",
			mutate:   func(c *config.Config) { c.Telemetry = true },
			wantCode: errors.ErrMissingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode))
		})
	}
}
