package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/iksnae/jobtrack/internal"
	"github.com/spf13/cobra"
)

var (
	statusCheck   bool
	statusDetails bool
)

// statusCmd reports the configuration, the stored session and optionally backend reachability
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session and configuration",
	Long: `Show which backend the client talks to and whether a session is held.

With --check the backend is contacted to verify that the stored session
is still accepted:
  • Configuration
  • Stored session and its expiry
  • Backend reachability (with --check)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		return withApp(cmd, func(ctx context.Context, app *internal.App) error {
			fmt.Fprintln(out, sectionStyle.Render("Job Tracker Status"))
			fmt.Fprintln(out)

			fmt.Fprintln(out, infoStyle.Render("Configuration"))
			fmt.Fprintf(out, "   %s %s\n", labelStyle.Render("Backend:"), app.HTTP.BaseURL())
			if app.Config.Ephemeral {
				fmt.Fprintf(out, "   %s %s\n", labelStyle.Render("Storage:"), "memory (ephemeral)")
			} else {
				fmt.Fprintf(out, "   %s %s\n", labelStyle.Render("Storage:"), app.Config.DatabasePath())
			}
			if statusDetails {
				fmt.Fprintf(out, "   %s %s\n", labelStyle.Render("Timeout:"), app.Config.Timeout)
				fmt.Fprintf(out, "   %s %.1f/s (burst %d)\n", labelStyle.Render("Rate limit:"), app.Config.RequestsPerSecond, app.Config.Burst)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, infoStyle.Render("Session"))
			session, ok := app.Session.Current()
			if !ok {
				fmt.Fprintln(out, warningStyle.Render("⚠️  Not signed in"))
				fmt.Fprintln(out, "   Run 'jobtrack login' to sign in")
				return nil
			}
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Signed in as %s <%s>", session.User.FullName, session.User.Email)))
			remaining := time.Until(session.ExpiresAt).Round(time.Minute)
			fmt.Fprintf(out, "   %s %s (in %s)\n", labelStyle.Render("Expires:"), session.ExpiresAt.Local().Format(time.RFC1123), remaining)
			fmt.Fprintln(out)

			if !statusCheck {
				return nil
			}

			fmt.Fprintln(out, infoStyle.Render("Backend"))
			apps, err := app.Tracker.Applications(ctx)
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Backend check failed:"), err)
				if !app.Session.IsAuthenticated() {
					fmt.Fprintln(out, "   The backend rejected the stored session; you have been signed out")
				}
				return fmt.Errorf("status check failed: %w", err)
			}
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Backend reachable, %d application(s) tracked", len(apps))))

			if statusDetails {
				fmt.Fprintln(out)
				fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Cache: %d entr(ies)", app.Cache.Len())))
				for _, key := range app.Cache.Keys() {
					entry, _ := app.Cache.Get(key)
					fmt.Fprintf(out, "   %s %s\n", idStyle.Render(key.String()), entry.Status)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusCheck, "check", false, "Contact the backend to verify the session")
	statusCmd.Flags().BoolVar(&statusDetails, "details", false, "Show detailed configuration")
}
