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
	Network  NetworkConfig  `mapstructure:"network" yaml:"network"`
	Locator  LocatorConfig  `mapstructure:"locator" yaml:"locator"`
	Retry    RetryConfig    `mapstructure:"retry" yaml:"retry"`
	Actuator ActuatorConfig `mapstructure:"actuator" yaml:"actuator"`
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

// BrowserConfig controls the managed Chrome instance.
type BrowserConfig struct {
	Headless       bool     `mapstructure:"headless" yaml:"headless"`
	ViewportWidth  int      `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int      `mapstructure:"viewport_height" yaml:"viewport_height"`
	UserAgent      string   `mapstructure:"user_agent" yaml:"user_agent"`
	Args           []string `mapstructure:"args" yaml:"args"`
}

// NetworkConfig tunes navigation behavior.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// RateLimit is the minimum spacing between navigations across targets.
	// Zero disables throttling.
	RateLimit time.Duration `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// LocatorConfig tunes the two location strategies.
type LocatorConfig struct {
	// MatchThreshold is the minimum normalized correlation for a visual match.
	MatchThreshold float64 `mapstructure:"match_threshold" yaml:"match_threshold"`
	// ProbeTimeout bounds the visibility probe for a single selector candidate.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
}

// RetryConfig defines the attempt budget applied around a locate strategy.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	WaitBeforeFirst time.Duration `mapstructure:"wait_before_first" yaml:"wait_before_first"`
	WaitBetween     time.Duration `mapstructure:"wait_between" yaml:"wait_between"`
}

// ActuatorConfig shapes the simulated pointer behavior.
type ActuatorConfig struct {
	// FittsA and FittsB parameterize movement duration (MT = A + B*log2(1+D/W), ms).
	FittsA float64 `mapstructure:"fitts_a" yaml:"fitts_a"`
	FittsB float64 `mapstructure:"fitts_b" yaml:"fitts_b"`
	// PerlinAmplitude is the pixel amplitude of low-frequency cursor drift.
	PerlinAmplitude float64 `mapstructure:"perlin_amplitude" yaml:"perlin_amplitude"`
	// TremorStrength is the std-dev of high-frequency Gaussian jitter in pixels.
	TremorStrength float64 `mapstructure:"tremor_strength" yaml:"tremor_strength"`
	ClickHoldMinMs int     `mapstructure:"click_hold_min_ms" yaml:"click_hold_min_ms"`
	ClickHoldMaxMs int     `mapstructure:"click_hold_max_ms" yaml:"click_hold_max_ms"`
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pinpoint")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// Browser defaults. A fixed viewport keeps visual references comparable
	// across runs.
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.args", []string{})

	// Network defaults
	v.SetDefault("network.navigation_timeout", "30s")
	v.SetDefault("network.rate_limit", "0s")

	// Locator defaults
	v.SetDefault("locator.match_threshold", 0.8)
	v.SetDefault("locator.probe_timeout", "5s")

	// Retry defaults. The between-attempt wait is deliberately longer than the
	// initial wait: a miss after one attempt usually means the page is still
	// animating or loading, not that the element is absent.
	v.SetDefault("retry.max_attempts", 2)
	v.SetDefault("retry.wait_before_first", "500ms")
	v.SetDefault("retry.wait_between", "1s")

	// Actuator defaults
	v.SetDefault("actuator.fitts_a", 100.0)
	v.SetDefault("actuator.fitts_b", 150.0)
	v.SetDefault("actuator.perlin_amplitude", 2.0)
	v.SetDefault("actuator.tremor_strength", 0.5)
	v.SetDefault("actuator.click_hold_min_ms", 40)
	v.SetDefault("actuator.click_hold_max_ms", 120)
}

// Load unmarshals the configuration from the given viper instance and
// validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	if c.Locator.MatchThreshold < 0 || c.Locator.MatchThreshold > 1 {
		return fmt.Errorf("locator.match_threshold must be in [0,1], got %v", c.Locator.MatchThreshold)
	}
	if c.Locator.ProbeTimeout <= 0 {
		return fmt.Errorf("locator.probe_timeout must be positive, got %v", c.Locator.ProbeTimeout)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.WaitBeforeFirst < 0 || c.Retry.WaitBetween < 0 {
		return fmt.Errorf("retry waits must not be negative")
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport dimensions must be positive, got %dx%d",
			c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	if c.Actuator.ClickHoldMinMs < 0 || c.Actuator.ClickHoldMaxMs < c.Actuator.ClickHoldMinMs {
		return fmt.Errorf("actuator click hold window is invalid: min=%d max=%d",
			c.Actuator.ClickHoldMinMs, c.Actuator.ClickHoldMaxMs)
	}
	return nil
}
