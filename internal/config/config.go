package config

import (
	"os"
	"strings"

	"codeberg.org/vintr/impressd/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval       = 16 // milliseconds per tick
	defaultRatio          = 0.5
	defaultTime           = 1000 // milliseconds of dwell
	defaultScrollSpeed    = 120.0
	defaultViewportWidth  = 1280.0
	defaultViewportHeight = 800.0
)

// TargetConfig describes one simulated target rectangle, loaded from
// the configuration file.
type TargetConfig struct {
	Name   string  `mapstructure:"name"`
	X      float64 `mapstructure:"x"`
	Y      float64 `mapstructure:"y"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type Config struct {
	Interval       int            `mapstructure:"interval"`        // tick interval in milliseconds
	Ratio          float64        `mapstructure:"ratio"`           // impression ratio
	Time           int            `mapstructure:"time"`            // impression dwell in milliseconds
	Duration       int            `mapstructure:"duration"`        // seconds to run, 0 runs until signalled
	ScrollSpeed    float64        `mapstructure:"scroll-speed"`    // simulated scroll in px/s
	ViewportWidth  float64        `mapstructure:"viewport-width"`  //
	ViewportHeight float64        `mapstructure:"viewport-height"` //
	LogLevel       string         `mapstructure:"log-level"`
	Telemetry      bool           `mapstructure:"telemetry"`
	TelemetryDB    string         `mapstructure:"database"`
	Targets        []TargetConfig `mapstructure:"targets"`
}

// IsDebug reports whether debug logging is requested.
func (c *Config) IsDebug() bool { return c.LogLevel == "debug" }

// IsVerbose reports whether info-level logging is requested.
func (c *Config) IsVerbose() bool { return c.LogLevel == "debug" || c.LogLevel == "info" }

func Load() (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet("impressd", pflag.ContinueOnError)
	fs.Int("interval", defaultInterval, "Tick interval in milliseconds")
	fs.Float64("ratio", defaultRatio, "Intersection ratio required for an impression")
	fs.Int("time", defaultTime, "Dwell time in milliseconds before an impression counts")
	fs.Int("duration", 0, "Seconds to run the simulation (0 runs until signalled)")
	fs.Float64("scroll-speed", defaultScrollSpeed, "Simulated scroll speed in pixels per second")
	fs.Float64("viewport-width", defaultViewportWidth, "Viewport width in pixels")
	fs.Float64("viewport-height", defaultViewportHeight, "Viewport height in pixels")
	fs.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")
	fs.Bool("telemetry", false, "Record visibility events to the telemetry database")
	fs.String("database", "", "Path to the telemetry database")
	fs.String("config", "", "Path to the configuration file")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix("IMPRESSD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	configPath, _ := fs.GetString("config")
	if configPath == "" {
		configPath = os.Getenv("IMPRESSD_CONFIG")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	} else {
		v.SetConfigName("impressd")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errFactory.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	applyLogLevel(config.LogLevel)

	return config, nil
}

// Validate checks value ranges; it is called by Load and by tests
// constructing configs directly.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.Ratio < 0 || c.Ratio > 1 {
		return errFactory.WithData(errors.ErrRatioOutOfRange, c.Ratio)
	}
	if c.Time < 0 {
		return errFactory.WithData(errors.ErrNegativeTime, c.Time)
	}
	if c.Telemetry && c.TelemetryDB == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "telemetry enabled without a database path")
	}

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

func applyLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
}
