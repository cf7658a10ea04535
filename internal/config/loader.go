package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "qrscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "QRSCAN"
)

// Loader reads configuration through its own viper instance, so commands
// built in tests do not share flag bindings.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Viper returns the underlying viper instance, for binding flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads configFile, or searches the standard locations when it is
// empty, then applies environment overrides and validates the result. A
// missing file in the search path is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
		if err := l.v.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// ConfigFileUsed returns the path of the config file read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "qrscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "qrscan"))
	}

	l.v.AddConfigPath("/etc/qrscan")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log.level", defaults.Log.Level)
	l.v.SetDefault("log.format", defaults.Log.Format)

	l.v.SetDefault("decode.pure", defaults.Decode.Pure)
	l.v.SetDefault("decode.try_harder", defaults.Decode.TryHarder)
	l.v.SetDefault("decode.charset", defaults.Decode.Charset)
	l.v.SetDefault("decode.workers", defaults.Decode.Workers)
	l.v.SetDefault("decode.max_dimension", defaults.Decode.MaxDimension)
	l.v.SetDefault("decode.output_format", defaults.Decode.OutputFormat)
	l.v.SetDefault("decode.metrics_file", defaults.Decode.MetricsFile)

	l.v.SetDefault("encode.level", defaults.Encode.Level)
	l.v.SetDefault("encode.version", defaults.Encode.Version)
	l.v.SetDefault("encode.mask", defaults.Encode.Mask)
	l.v.SetDefault("encode.charset", defaults.Encode.Charset)
	l.v.SetDefault("encode.scale", defaults.Encode.Scale)
	l.v.SetDefault("encode.margin", defaults.Encode.Margin)
}
