package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirauth/dirauth/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile every LDAP user into the local user store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := daemon.OpenDB(cfg)
		if err != nil {
			return err
		}

		res, err := daemon.NewEnv(cfg, db).Auth.Sync(cmd.Context())
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Message)

		return err
	},
}
