// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/dirauth/dirauth/internal/config"
	"github.com/dirauth/dirauth/internal/logger"
)

var (
	configPath string // Path to the configuration directory
	devMode    bool

	rootCmd = &cobra.Command{
		Use:   "dirauth",
		Short: "dirauth authenticates users against LDAP directories, local passwords and SSO headers",
		Long: `dirauth is an authentication service that reconciles LDAP and trusted
reverse proxy identities onto local user accounts and issues signed tokens.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Path to the configuration directory")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and initialises logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.ReadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if devMode {
		cfg.DevMode = true
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	return &cfg, nil
}
