// Package config resolves recipebox settings from, in increasing priority,
// defaults, a recipebox.yaml file, RECIPEBOX_* environment variables, and
// explicitly set command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/recipebox/internal/entrylist"
	"github.com/roach88/recipebox/internal/store"
)

// EnvPrefix prefixes environment overrides, e.g. RECIPEBOX_DB.
const EnvPrefix = "RECIPEBOX"

// Keys.
const (
	KeyDB            = "db"
	KeyLogLevel      = "log.level"
	KeyFormat        = "format"
	KeyMaxOpenConns  = "store.max_open_conns"
	KeyBusyTimeoutMS = "store.busy_timeout_ms"
	KeyIdentity      = "entries.identity"
	KeyMetricsFile   = "metrics.file"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":           KeyDB,
	"format":       KeyFormat,
	"metrics-file": KeyMetricsFile,
}

// Config is the resolved configuration.
type Config struct {
	DB          string
	LogLevel    slog.Level
	Format      string
	MetricsFile string
	Store       StoreConfig
	Identity    entrylist.Identity

	// File is the config file that was read, empty if none.
	File string
}

// StoreConfig holds the SQLite pool settings.
type StoreConfig struct {
	MaxOpenConns int
	BusyTimeout  time.Duration
}

// StoreOptions converts c to store options.
func (c StoreConfig) StoreOptions() []store.Option {
	return []store.Option{
		store.WithMaxOpenConns(c.MaxOpenConns),
		store.WithBusyTimeout(c.BusyTimeout),
	}
}

// Load resolves the configuration. An explicit file must exist; otherwise
// recipebox.yaml is looked up in $XDG_CONFIG_HOME/recipebox and the working
// directory, and its absence is not an error. Only flags the user set
// override lower layers.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyMaxOpenConns, store.DefaultMaxOpenConns)
	v.SetDefault(KeyBusyTimeoutMS, store.DefaultBusyTimeout.Milliseconds())
	v.SetDefault(KeyIdentity, entrylist.Stable.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("recipebox")
		v.SetConfigType("yaml")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	cfg := Config{
		DB:          v.GetString(KeyDB),
		Format:      v.GetString(KeyFormat),
		MetricsFile: v.GetString(KeyMetricsFile),
		Store: StoreConfig{
			MaxOpenConns: v.GetInt(KeyMaxOpenConns),
			BusyTimeout:  time.Duration(v.GetInt64(KeyBusyTimeoutMS)) * time.Millisecond,
		},
		File: v.ConfigFileUsed(),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}

	identity, err := entrylist.ParseIdentity(v.GetString(KeyIdentity))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyIdentity, err)
	}
	cfg.Identity = identity

	switch cfg.Format {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("%s: must be text or json, got %q", KeyFormat, cfg.Format)
	}
	if cfg.Store.MaxOpenConns < 1 {
		return Config{}, fmt.Errorf("%s: must be at least 1, got %d", KeyMaxOpenConns, cfg.Store.MaxOpenConns)
	}
	if cfg.Store.BusyTimeout < 0 {
		return Config{}, fmt.Errorf("%s: must not be negative", KeyBusyTimeoutMS)
	}
	return cfg, nil
}

func searchDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "recipebox"))
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "recipebox"))
	}
	return append(dirs, ".")
}
