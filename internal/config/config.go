package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	WorkDir     string   `mapstructure:"WORK_DIR"`
	FileExt     string   `mapstructure:"FILE_EXT"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("WORK_DIR", ".")
	v.SetDefault("FILE_EXT", "hl7")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("WORK_DIR")
	v.BindEnv("FILE_EXT")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.FileExt == "" || strings.HasPrefix(c.FileExt, ".") {
		return fmt.Errorf("FILE_EXT must be a bare extension without the leading dot, got %q", c.FileExt)
	}
	if c.WorkDir == "" {
		return fmt.Errorf("WORK_DIR must not be empty")
	}
	return nil
}
