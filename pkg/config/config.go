package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TRIAGE"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Output    OutputConfig    `mapstructure:"output"`
	History   HistoryConfig   `mapstructure:"history"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" validate:"oneof=human json yaml"`
}

type HistoryConfig struct {
	Limit               int  `mapstructure:"limit" validate:"min=1,max=500"`
	RefreshAfterConsult bool `mapstructure:"refresh_after_consult"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file" validate:"required"`
}

type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir" validate:"required_if=Enabled true"`
}

// Overrides are command-line values that win over every other source.
type Overrides struct {
	ConfigFile string
	BaseURL    string
	Format     string
}

var validate = validator.New()

// DefaultDir is ~/.config/triage.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "triage"), nil
}

// Load reads .env, the config file (optional unless named explicitly) and
// TRIAGE_* environment variables, in increasing precedence.
func Load(o Overrides) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if o.BaseURL != "" {
		v.Set("server.base_url", o.BaseURL)
	}
	if o.Format != "" {
		v.Set("output.format", o.Format)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", f.Namespace(), f.Tag(), f.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("server.base_url", "http://127.0.0.1:8000")
	v.SetDefault("output.format", "human")
	v.SetDefault("history.limit", 20)
	v.SetDefault("history.refresh_after_consult", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "triage.log"))
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dir", filepath.Join(dir, "telemetry"))
}
