package main

import (
	"fmt"
	"math"
	"time"

	"github.com/kbukum/wavechat/api"
	"github.com/kbukum/wavechat/config"
	"github.com/kbukum/wavechat/httpclient"
	"github.com/kbukum/wavechat/observability"
	"github.com/kbukum/wavechat/version"
	"github.com/kbukum/wavechat/waveform"
)

// Config is the full wavechat configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API      httpclient.Config  `yaml:"api" mapstructure:"api"`
	Analysis api.AnalysisParams `yaml:"analysis" mapstructure:"analysis"`
	Waveform WaveformConfig     `yaml:"waveform" mapstructure:"waveform"`
	Probe    ProbeConfig        `yaml:"probe" mapstructure:"probe"`
	Tracing  TracingConfig      `yaml:"tracing" mapstructure:"tracing"`
	Metrics  MetricsConfig      `yaml:"metrics" mapstructure:"metrics"`

	// ShutdownTimeout bounds how long stopping components may take on exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// WaveformConfig tunes the waveform view.
type WaveformConfig struct {
	MaxDefaultSelection float64 `yaml:"max_default_selection" mapstructure:"max_default_selection"`
	// Step is how far one key press moves a region edge, in seconds.
	Step float64 `yaml:"step" mapstructure:"step"`
}

// ProbeConfig locates ffprobe.
type ProbeConfig struct {
	Binary  string        `yaml:"binary" mapstructure:"binary"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// TracingConfig enables OTLP trace export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig enables OTLP metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills in zero values. The terminal belongs to the UI, so
// logs go to a file unless configured otherwise.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "wavechat"
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "wavechat.log"
	}
	c.ServiceConfig.ApplyDefaults()

	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000"
	}
	if c.API.Name == "" {
		c.API.Name = "backend"
	}
	c.API.ApplyDefaults()

	if c.Waveform.MaxDefaultSelection <= 0 {
		c.Waveform.MaxDefaultSelection = waveform.MaxDefaultSelection
	}
	if c.Waveform.Step <= 0 {
		c.Waveform.Step = 1
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}

	defaults := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = defaults.Endpoint
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = defaults.SampleRate
	}
	meterDefaults := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = meterDefaults.Endpoint
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = meterDefaults.Interval
	}
}

// Validate checks the configuration. Analysis parameters are checked when
// an analysis starts so a bad model id can be fixed without a restart.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if math.IsNaN(c.Waveform.MaxDefaultSelection) || math.IsInf(c.Waveform.MaxDefaultSelection, 0) {
		return fmt.Errorf("waveform.max_default_selection must be finite")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be within [0, 1] (got: %g)", c.Tracing.SampleRate)
	}
	return nil
}

func (c *Config) tracerConfig() observability.TracerConfig {
	tc := observability.DefaultTracerConfig(c.Name)
	if c.Version != "" {
		tc.ServiceVersion = c.Version
	}
	tc.Environment = c.Environment
	tc.Endpoint = c.Tracing.Endpoint
	tc.SampleRate = c.Tracing.SampleRate
	return tc
}

func (c *Config) meterConfig() observability.MeterConfig {
	mc := observability.DefaultMeterConfig(c.Name)
	if c.Version != "" {
		mc.ServiceVersion = c.Version
	}
	mc.Environment = c.Environment
	mc.Endpoint = c.Metrics.Endpoint
	mc.Interval = c.Metrics.Interval
	return mc
}
