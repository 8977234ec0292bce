package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/app"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/appconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configPath string
	serverURL  string
	tokenFile  string
)

var rootCmd = &cobra.Command{
	Use:           "activities",
	Short:         "Activity sign-up client",
	Long:          `activities lists extracurricular activities and lets a logged in teacher register and unregister students.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn",
		"sets the log level")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"activities API base URL, overrides the config file")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "",
		"where the auth token is persisted, overrides the config file")
}

// commonSetUp configures logging, loads the config and starts the client:
// the catalog is fetched while any persisted session is restored.
func commonSetUp(ctx context.Context) (*app.App, error) {
	setLogging(logLevel)

	cfg, err := appconfig.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		cfg.Server.URL = strings.TrimRight(serverURL, "/")
	}
	if tokenFile != "" {
		cfg.Session.TokenFile = tokenFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Debug().Str("server", cfg.Server.URL).Str("token_file", cfg.Session.TokenFile).Msg("config loaded")

	a := app.New(cfg)
	a.Start(ctx)
	return a, nil
}

// runWithApp is the shared body of the one-shot commands: start the
// client, run fn, then print the page.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := commandContext(cmd)
	a, err := commonSetUp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fnErr := fn(ctx, a)
	if err := a.Render(cmd.OutOrStdout()); err != nil {
		return err
	}
	return fnErr
}

// commandContext returns the context cmd runs under, or Background when
// cmd was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func setLogging(level string) {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}
