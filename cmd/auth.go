package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/iksnae/jobtrack/internal"
	"github.com/spf13/cobra"
)

var (
	registerName     string
	registerEmail    string
	registerPassword string
	registerConfirm  string
	loginEmail       string
	loginPassword    string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `Create a new account on the backend and sign in with it.

The password is read from standard input when --password is not given.
Passwords must be at least 8 characters and entered twice.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := registerPassword
		if password == "" {
			var err error
			if password, err = readLine(cmd, "Password: "); err != nil {
				return err
			}
		}
		confirmation := registerConfirm
		if confirmation == "" {
			if cmd.Flags().Changed("password") {
				confirmation = password
			} else {
				var err error
				if confirmation, err = readLine(cmd, "Confirm password: "); err != nil {
					return err
				}
			}
		}

		return withApp(cmd, func(ctx context.Context, app *internal.App) error {
			user, err := app.Register(ctx, internal.RegisterRequest{
				FullName:        registerName,
				Email:           registerEmail,
				Password:        password,
				ConfirmPassword: confirmation,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Welcome, %s! You are signed in as %s.", user.FullName, user.Email)))
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend",
	Long: `Sign in with your email and password. The session is stored in the
credential database and reused by later commands until the token expires.

The password is read from standard input when --password is not given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			var err error
			if password, err = readLine(cmd, "Password: "); err != nil {
				return err
			}
		}

		return withApp(cmd, func(ctx context.Context, app *internal.App) error {
			user, err := app.Login(ctx, internal.LoginRequest{Email: loginEmail, Password: password})
			if err != nil {
				return err
			}
			session, _ := app.Session.Current()
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Signed in as %s <%s>", user.FullName, user.Email)))
			fmt.Fprintln(cmd.OutOrStdout(), dateStyle.Render(fmt.Sprintf("Session expires %s", session.ExpiresAt.Local().Format(time.RFC1123))))
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *internal.App) error {
			wasSignedIn := app.Session.IsAuthenticated()
			app.Logout()
			if wasSignedIn {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Signed out"))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render("Not signed in"))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVar(&registerName, "name", "", "Full name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerConfirm, "confirm", "", "Password confirmation (defaults to --password)")
	_ = registerCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")
	_ = loginCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(logoutCmd)
}
