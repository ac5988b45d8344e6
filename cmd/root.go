package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/iksnae/jobtrack/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	apiURL     string
	dataDir    string
	ephemeral  bool
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jobtrack",
	Short: "Track job applications and notes from the terminal",
	Long: `A command-line client for the job application tracker backend.

Sign in once and your session is kept on disk until the token expires.
Every command talks to the backend through the same session, and any
request the backend rejects as unauthorized logs you out.

Quick Start:
  jobtrack register --name "Ada Lovelace" --email ada@example.com
  jobtrack login --email ada@example.com
  jobtrack create --company Acme --position "Backend Engineer"
  jobtrack list
  jobtrack note add 1 "Recruiter call on Friday"
  jobtrack export --format md`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(err)
		stop()
		os.Exit(1)
	}
}

// reportError prints err with a hint for the error kinds users can act on
func reportError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var verr *internal.ValidationError
	switch {
	case errors.As(err, &verr):
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", name, verr.Fields[name])
		}
	case errors.Is(err, internal.ErrUnauthorized):
		internal.PrintWarning("Your session is no longer valid. Run 'jobtrack login' to sign in again.")
	case errors.Is(err, internal.ErrNotAuthenticated):
		internal.PrintWarning("Run 'jobtrack login' first.")
	}
}

// loadConfig applies the persistent flags on top of file and environment settings
func loadConfig(cmd *cobra.Command) (internal.Config, error) {
	path := configPath
	if path == "" {
		path = internal.DefaultConfigPath()
	}

	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("ephemeral") {
		cfg.Ephemeral = ephemeral
	}
	return cfg, cfg.Validate()
}

// withApp builds the client for one command run and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *internal.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := internal.NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			internal.LogWarn("Failed to close credential store: %v", err)
		}
	}()

	return fn(cmd.Context(), app)
}

// withSession is withApp for commands that need a signed-in user
func withSession(cmd *cobra.Command, fn func(ctx context.Context, app *internal.App) error) error {
	return withApp(cmd, func(ctx context.Context, app *internal.App) error {
		if _, err := app.RequireSession(); err != nil {
			return err
		}
		return fn(ctx, app)
	})
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is $XDG_CONFIG_HOME/jobtrack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", internal.DefaultAPIURL, "Backend API base URL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the credential database")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the session in memory only")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
