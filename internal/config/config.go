// Package config holds the drmctl configuration, read with viper from
// drmctl.toml and DRMCTL_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Lease   LeaseConfig   `mapstructure:"lease"`
	Modeset ModesetConfig `mapstructure:"modeset"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type DeviceConfig struct {
	Path       string `mapstructure:"path"`
	ForceProbe bool   `mapstructure:"force_probe"` // re-detect connectors, slow
}

type LeaseConfig struct {
	Flags []string `mapstructure:"flags"` // cloexec, nonblock
}

type ModesetConfig struct {
	Hold time.Duration `mapstructure:"hold"` // how long the test pattern stays up
}

type LoggingConfig struct {
	Level string `mapstructure:"level"` // overrides LOG_LEVEL when set
}

var (
	DefaultConfig = Config{
		Device: DeviceConfig{
			Path:       "/dev/dri/card0",
			ForceProbe: false,
		},
		Lease: LeaseConfig{
			Flags: []string{"cloexec", "nonblock"},
		},
		Modeset: ModesetConfig{
			Hold: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "",
		},
	}

	cfg *Config

	configPathOverride string
)

// SetConfigPath makes Init read only path.
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init loads the configuration. A missing config file is not an error.
func Init() error {
	viper.SetConfigName("drmctl")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/drmctl")
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "drmctl"))
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("DRMCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("device.path", DefaultConfig.Device.Path)
	viper.SetDefault("device.force_probe", DefaultConfig.Device.ForceProbe)
	viper.SetDefault("lease.flags", DefaultConfig.Lease.Flags)
	viper.SetDefault("modeset.hold", DefaultConfig.Modeset.Hold)
	viper.SetDefault("logging.level", DefaultConfig.Logging.Level)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	cfg = c
	return nil
}

// Get returns the loaded configuration, or the defaults before Init.
func Get() *Config {
	if cfg == nil {
		return &DefaultConfig
	}
	return cfg
}

// Set replaces the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}
