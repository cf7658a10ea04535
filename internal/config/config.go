// Package config loads the qrscan configuration from defaults, an optional
// YAML file, QRSCAN_* environment variables and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ericlevine/qrcodec/charset"
	"github.com/ericlevine/qrcodec/qrcode"
	"github.com/ericlevine/qrcodec/qrcode/decoder"
)

// Config is the complete qrscan configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log" yaml:"log" json:"log"`
	Decode DecodeConfig `mapstructure:"decode" yaml:"decode" json:"decode"`
	Encode EncodeConfig `mapstructure:"encode" yaml:"encode" json:"encode"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// DecodeConfig holds the settings of the decode command.
type DecodeConfig struct {
	Pure      bool   `mapstructure:"pure" yaml:"pure" json:"pure"`
	TryHarder bool   `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
	Charset   string `mapstructure:"charset" yaml:"charset" json:"charset"`
	Workers   int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	// MaxDimension shrinks larger images before decoding; 0 disables it.
	MaxDimension int    `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format" json:"output_format"`
	// MetricsFile receives Prometheus text format metrics after a run.
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// EncodeConfig holds the settings of the encode command.
type EncodeConfig struct {
	Level string `mapstructure:"level" yaml:"level" json:"level"`
	// Version 0 picks the smallest version that fits.
	Version int `mapstructure:"version" yaml:"version" json:"version"`
	// Mask -1 picks the mask with the lowest penalty.
	Mask    int    `mapstructure:"mask" yaml:"mask" json:"mask"`
	Charset string `mapstructure:"charset" yaml:"charset" json:"charset"`
	Scale   int    `mapstructure:"scale" yaml:"scale" json:"scale"`
	Margin  int    `mapstructure:"margin" yaml:"margin" json:"margin"`
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json"}
	validOutputFormats = []string{"text", "json", "yaml"}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Decode: DecodeConfig{
			Workers:      4,
			OutputFormat: "text",
		},
		Encode: EncodeConfig{
			Level:  "M",
			Mask:   -1,
			Scale:  8,
			Margin: 4,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Log.Level, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.Log.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Decode.Workers <= 0 {
		return fmt.Errorf("invalid decode workers: %d (must be positive)", c.Decode.Workers)
	}
	if c.Decode.MaxDimension < 0 {
		return fmt.Errorf("invalid max dimension: %d (must not be negative)", c.Decode.MaxDimension)
	}
	if !slices.Contains(validOutputFormats, c.Decode.OutputFormat) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			c.Decode.OutputFormat, strings.Join(validOutputFormats, ", "))
	}
	if err := validateCharset(c.Decode.Charset, "decode.charset"); err != nil {
		return err
	}

	if _, err := decoder.ParseErrorCorrectionLevel(c.Encode.Level); err != nil {
		return fmt.Errorf("invalid encode level: %s (must be one of: L, M, Q, H)", c.Encode.Level)
	}
	if c.Encode.Version < 0 || c.Encode.Version > 40 {
		return fmt.Errorf("invalid encode version: %d (must be between 0 and 40)", c.Encode.Version)
	}
	if c.Encode.Mask < -1 || c.Encode.Mask > 7 {
		return fmt.Errorf("invalid encode mask: %d (must be between -1 and 7)", c.Encode.Mask)
	}
	if c.Encode.Scale <= 0 {
		return fmt.Errorf("invalid encode scale: %d (must be positive)", c.Encode.Scale)
	}
	if c.Encode.Margin < 0 {
		return fmt.Errorf("invalid encode margin: %d (must not be negative)", c.Encode.Margin)
	}
	return validateCharset(c.Encode.Charset, "encode.charset")
}

func validateCharset(name, key string) error {
	if name != "" && charset.ECIForName(name) == nil {
		return fmt.Errorf("invalid %s: unknown character set %q", key, name)
	}
	return nil
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ToDecodeOptions converts the decode settings for qrcode.Reader.
func (c *Config) ToDecodeOptions(logger *slog.Logger) *qrcode.DecodeOptions {
	opts := &qrcode.DecodeOptions{
		Pure:      c.Decode.Pure,
		TryHarder: c.Decode.TryHarder,
		Logger:    logger,
	}
	if c.Decode.Charset != "" {
		opts.CharsetHint = charset.ECIForName(c.Decode.Charset)
	}
	return opts
}

// ToEncodeOptions converts the encode settings for qrcode.Writer.
func (c *Config) ToEncodeOptions() *qrcode.EncodeOptions {
	margin := c.Encode.Margin
	opts := &qrcode.EncodeOptions{
		ErrorCorrection: c.Encode.Level,
		Margin:          &margin,
		Version:         c.Encode.Version,
		Charset:         c.Encode.Charset,
	}
	if c.Encode.Mask >= 0 {
		mask := c.Encode.Mask
		opts.Mask = &mask
	}
	return opts
}
