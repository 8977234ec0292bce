package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/app"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/session"
	"github.com/spf13/cobra"
)

const passwordEnv = "ACTIVITIES_PASSWORD"

var (
	username string
	password string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as a teacher and persist the session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if password == "" {
			password = os.Getenv(passwordEnv)
		}
		if password == "" {
			return fmt.Errorf("a password is required: use --password or set %s", passwordEnv)
		}
		return runWithApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Session.Login(ctx, username, password)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the persisted session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app.App) error {
			a.Session.Logout()
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := commonSetUp(commandContext(cmd))
		if err != nil {
			return err
		}
		defer a.Close()

		return printIdentity(cmd.OutOrStdout(), a.Session)
	},
}

func printIdentity(out io.Writer, s *session.Manager) error {
	user, ok := s.User()
	if !ok {
		fmt.Fprintln(out, "Not logged in")
		return errors.New("not logged in")
	}

	fmt.Fprintf(out, "Username: %s\n", user.Username)
	if user.Role != "" {
		fmt.Fprintf(out, "Role:     %s\n", user.Role)
	}
	if claims, err := s.Claims(); err == nil && !claims.Expiry().IsZero() {
		fmt.Fprintf(out, "Expires:  %s\n", claims.Expiry().Format(time.RFC3339))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringVarP(&username, "username", "u", "", "teacher username")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "teacher password (or "+passwordEnv+")")
	_ = loginCmd.MarkFlagRequired("username")
}
