package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/anilyagiz/dDef/internal/host"
	"github.com/anilyagiz/dDef/pkg/log"
)

// Config is read from an optional TOML file. Missing fields keep their
// defaults and TIMELOCK_* environment variables override both.
type Config struct {
	DataDir         string `toml:"data_dir"`
	AccountCapacity int    `toml:"account_capacity"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
}

func defaultConfig() Config {
	return Config{
		DataDir:         "timelock-data",
		AccountCapacity: 16 * 1024,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TIMELOCK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("TIMELOCK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TIMELOCK_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("TIMELOCK_ACCOUNT_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TIMELOCK_ACCOUNT_CAPACITY: %w", err)
		}
		c.AccountCapacity = n
	}
	return nil
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.AccountCapacity <= 0 || c.AccountCapacity > host.MaxAccountCapacity {
		return fmt.Errorf("account_capacity must be between 1 and %d", host.MaxAccountCapacity)
	}
	if _, err := log.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := log.ParseLoggerType(c.LogFormat); err != nil {
		return fmt.Errorf("log_format: %w", err)
	}
	return nil
}
