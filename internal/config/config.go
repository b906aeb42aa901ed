// Package config resolves logdeck settings from defaults, an optional YAML
// file, LOGDECK_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atikulmunna/logdeck/internal/merger"
	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/atikulmunna/logdeck/internal/tailer"
	"github.com/spf13/viper"
)

// Keys understood in the config file and environment.
const (
	KeyListen            = "listen"
	KeyFolders           = "folders"
	KeyDBPath            = "db_path"
	KeyPollInterval      = "poll_interval"
	KeyReconnectAttempts = "reconnect_attempts"
	KeyMaxReadBytes      = "max_read_bytes"
	KeyLogLevel          = "log_level"
	KeyLogFile           = "log_file"
)

// EnvPrefix is prepended to every key when looking at the environment.
const EnvPrefix = "LOGDECK"

// Config is the resolved configuration.
type Config struct {
	Listen            string        `json:"listen"`
	Folders           []string      `json:"folders"`
	DBPath            string        `json:"db_path"`
	PollInterval      time.Duration `json:"poll_interval"`
	ReconnectAttempts int           `json:"reconnect_attempts"`
	MaxReadBytes      int64         `json:"max_read_bytes"`
	LogLevel          string        `json:"log_level"`
	LogFile           string        `json:"log_file"`
}

// SetDefaults registers defaults and environment binding on v.
func SetDefaults(v *viper.Viper) {
	d := tailer.DefaultOptions()
	v.SetDefault(KeyListen, ":8080")
	v.SetDefault(KeyFolders, []string{})
	v.SetDefault(KeyDBPath, defaultDBPath())
	v.SetDefault(KeyPollInterval, d.PollInterval)
	v.SetDefault(KeyReconnectAttempts, d.ReconnectAttempts)
	v.SetDefault(KeyMaxReadBytes, merger.DefaultMaxReadBytes)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// ReadFile loads cfgFile, or .logdeck.yaml from $HOME or the working
// directory when cfgFile is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".logdeck")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load resolves a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Listen:            strings.TrimSpace(v.GetString(KeyListen)),
		Folders:           splitFolders(v.GetStringSlice(KeyFolders)),
		DBPath:            v.GetString(KeyDBPath),
		PollInterval:      v.GetDuration(KeyPollInterval),
		ReconnectAttempts: v.GetInt(KeyReconnectAttempts),
		MaxReadBytes:      v.GetInt64(KeyMaxReadBytes),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFile:           v.GetString(KeyLogFile),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Listen == "":
		return fmt.Errorf("config: %s must not be empty: %w", KeyListen, model.ErrInvalidInput)
	case c.PollInterval <= 0:
		return fmt.Errorf("config: %s must be positive, got %s: %w", KeyPollInterval, c.PollInterval, model.ErrInvalidInput)
	case c.ReconnectAttempts < 0:
		return fmt.Errorf("config: %s must not be negative: %w", KeyReconnectAttempts, model.ErrInvalidInput)
	case c.MaxReadBytes <= 0:
		return fmt.Errorf("config: %s must be positive: %w", KeyMaxReadBytes, model.ErrInvalidInput)
	}
	return nil
}

// TailOptions returns the tail engine settings.
func (c Config) TailOptions() tailer.Options {
	opts := tailer.DefaultOptions()
	opts.PollInterval = c.PollInterval
	opts.ReconnectAttempts = c.ReconnectAttempts
	opts.MaxReadBytes = c.MaxReadBytes
	return opts
}

// splitFolders accepts both YAML lists and comma-separated env values.
func splitFolders(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, f := range strings.Split(r, ",") {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".logdeck.db"
	}
	return filepath.Join(home, ".logdeck.db")
}
