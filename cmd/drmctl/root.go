package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrshiposha/drm"
	"github.com/mrshiposha/drm/internal/config"
	"github.com/mrshiposha/drm/internal/logger"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configPath string

	rootCmd = &cobra.Command{
		Use:   "drmctl",
		Short: "Inspect and drive DRM/KMS devices",
		Long: `drmctl talks to a DRM card node through the mode setting ioctls.
It lists resources, connectors, planes and properties, manages leases
and can light up connected outputs with a test pattern.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				config.SetConfigPath(configPath)
			}
			if err := config.Init(); err != nil {
				return err
			}
			if lvl := config.Get().Logging.Level; lvl != "" {
				logger.SetLevel(lvl)
			}
			return nil
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default drmctl.toml in /etc/drmctl, ~/.config/drmctl or .)")
	flags.String("device", config.DefaultConfig.Device.Path, "DRM device node")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	viper.BindPFlag("device.path", flags.Lookup("device"))
	viper.BindPFlag("logging.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(connectorsCmd)
	rootCmd.AddCommand(planesCmd)
	rootCmd.AddCommand(propsCmd)
	rootCmd.AddCommand(leaseCmd)
	rootCmd.AddCommand(modesetCmd)
}

func openCard() (*drm.Card, error) {
	path := config.Get().Device.Path
	card, err := drm.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	logger.Debug("opened card", "path", path)
	return card, nil
}
