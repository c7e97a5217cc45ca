package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirauth/dirauth/internal/config"
)

const secretMask = "********"

var dumpJSON bool

func init() { //nolint: gochecknoinits
	configCmd.Flags().BoolVar(&dumpJSON, "json", false, "Print the configuration as JSON")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.ReadConfig(configPath)
		if err != nil {
			return err
		}

		for _, secret := range []*string{&cfg.DB.Password, &cfg.Auth.JWTSecret, &cfg.Auth.AdminPassword} {
			if *secret != "" {
				*secret = secretMask
			}
		}

		dump := config.DumpConfig
		if dumpJSON {
			dump = config.DumpConfigJSON
		}

		out, err := dump(cfg)
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), out)

		return err
	},
}
