package cmd

import (
	"context"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/app"
	"github.com/spf13/cobra"
)

var (
	email    string
	activity string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show all activities and their participants",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app.App) error {
			return nil
		})
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a student for an activity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Activities.Signup(ctx, email, activity)
		})
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister",
	Short: "Remove a student from an activity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Activities.Unregister(ctx, activity, email)
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(unregisterCmd)

	for _, c := range []*cobra.Command{signupCmd, unregisterCmd} {
		c.Flags().StringVar(&email, "email", "", "student email")
		c.Flags().StringVar(&activity, "activity", "", "activity name")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("activity")
	}
}
