// Package config loads filelens settings from defaults, an optional YAML
// file and FILELENS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"filelens/internal/analyzer"
)

const envPrefix = "FILELENS"

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	Risk     RiskConfig     `mapstructure:"risk"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type AnalysisConfig struct {
	HashLimitBytes int64 `mapstructure:"hash_limit_bytes"`
	IncludeHash    bool  `mapstructure:"include_hash"`
}

type CleanupConfig struct {
	PreserveICC bool `mapstructure:"preserve_icc"`
}

type RiskConfig struct {
	// TaxonomyFile replaces the built-in risk taxonomy when set.
	TaxonomyFile string `mapstructure:"taxonomy_file"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info"},
		Analysis: AnalysisConfig{HashLimitBytes: analyzer.DefaultHashLimit, IncludeHash: true},
		Cleanup:  CleanupConfig{PreserveICC: true},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("analysis.hash_limit_bytes", d.Analysis.HashLimitBytes)
	v.SetDefault("analysis.include_hash", d.Analysis.IncludeHash)
	v.SetDefault("cleanup.preserve_icc", d.Cleanup.PreserveICC)
	v.SetDefault("risk.taxonomy_file", d.Risk.TaxonomyFile)
}

// Load reads configPath, or searches the usual locations for filelens.yaml
// when it is empty. A missing file is not an error when searching.
func Load(configPath string) (*Config, error) {
	return load(viper.New(), configPath)
}

func load(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("filelens")
		v.SetConfigType("yaml")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func searchPaths() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "filelens"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "filelens"))
	}
	return append(dirs, ".")
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Analysis.HashLimitBytes < 0 {
		return fmt.Errorf("analysis.hash_limit_bytes must not be negative, got %d", c.Analysis.HashLimitBytes)
	}
	return nil
}

// ParseLevel maps debug, info, warn (or warning) and error to slog levels.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level: unknown level %q (want debug, info, warn or error)", name)
	}
}
