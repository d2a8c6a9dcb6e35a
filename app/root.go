// Package app implements the main application commands.
package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dirsync/dirsync/internal/config"
	"github.com/dirsync/dirsync/internal/daemon"
	"github.com/dirsync/dirsync/internal/logger"
)

const keyConfig = "config"

var rootCmd = &cobra.Command{
	Use:   "dirsync",
	Short: "dirsync synchronizes Active Directory accounts with a local user store",
	Long: `dirsync imports Active Directory group members into a local user store,
writes selected local attributes back to the directory and authenticates
local logins against the directory.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().String(keyConfig, "etc", "Directory holding main.toml")

	if err := viper.BindPFlag(keyConfig, rootCmd.PersistentFlags().Lookup(keyConfig)); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("dirsync")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration from --config or DIRSYNC_CONFIG.
func loadConfig() (config.Config, error) {
	cfg, err := config.ReadConfig(viper.GetString(keyConfig))
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	return cfg, nil
}

// start reads the configuration, initializes logging and wires the daemon.
func start() (*daemon.Daemon, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err = logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	return daemon.New(&cfg)
}
