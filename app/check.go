package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirauth/dirauth/internal/daemon"
)

var errNotConnected = errors.New("LDAP status check failed")

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the stored LDAP configuration can reach a server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := daemon.OpenDB(cfg)
		if err != nil {
			return err
		}

		status := daemon.NewEnv(cfg, db).Directory.Status(cmd.Context())

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), status.Message); err != nil {
			return err
		}

		if !status.Connected {
			return errNotConnected
		}

		return nil
	},
}
