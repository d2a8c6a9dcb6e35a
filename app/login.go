package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// envPassword carries the password of the login command so it stays out of the process list.
const envPassword = "DIRSYNC_PASSWORD"

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login <name>",
	Short: "Authenticate a login name against the directory",
	Long: `Authenticate a login name against the directory the way the application
login does. The password is read from the ` + envPassword + ` environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := start()
		if err != nil {
			return err
		}

		authenticator, err := d.Authenticator()
		if err != nil {
			return err
		}

		creds, err := authenticator.Authenticate(cmd.Context(), args[0], os.Getenv(envPassword))
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "authenticated %s (sAMAccountName %s, objectGUID %s, local user %d)\n",
			creds.Login, creds.SAMAccountName, creds.ObjectGUID, creds.LocalUserID)

		return nil
	},
}
