package app

import (
	"github.com/spf13/cobra"

	"github.com/dirauth/dirauth/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the dirauth web service",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		d, err := daemon.New(cfg)
		if err != nil {
			return err
		}

		return d.Start()
	},
}
