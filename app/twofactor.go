package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirauth/dirauth/internal/auth"
	"github.com/dirauth/dirauth/internal/daemon"
)

func init() { //nolint: gochecknoinits
	twoFactorCmd.AddCommand(twoFactorEnrollCmd, twoFactorEnableCmd)
	rootCmd.AddCommand(twoFactorCmd)
}

var twoFactorCmd = &cobra.Command{
	Use:   "twofactor",
	Short: "Manage TOTP second factors of local users",
}

var twoFactorEnrollCmd = &cobra.Command{
	Use:   "enroll <email>",
	Short: "Generate a TOTP secret; it stays inactive until enabled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := authService()
		if err != nil {
			return err
		}

		key, err := svc.EnrollTwoFactor(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "secret: %s\nurl: %s\n", key.Secret(), key.URL())

		return err
	},
}

var twoFactorEnableCmd = &cobra.Command{
	Use:   "enable <email> <code>",
	Short: "Activate a pending TOTP enrolment with a current code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := authService()
		if err != nil {
			return err
		}

		if err := svc.EnableTwoFactor(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "two-factor authentication enabled for %s\n", args[0])

		return err
	},
}

func authService() (*auth.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := daemon.OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	return daemon.NewEnv(cfg, db).Auth, nil
}
