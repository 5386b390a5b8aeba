// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/fieldcode/cliparse"
)

var (
	version string
	commit  string
	date    string
)

var (
	// flagCfg receives the raw flag values; cfg is the resolved configuration
	// available to every subcommand after PersistentPreRunE.
	flagCfg cliparse.Config
	cfg     cliparse.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fieldcode",
	Short: "fieldcode - coded SMS field reports to structured submissions",
	Long: `fieldcode turns short coded text messages from field observers into
validated submissions against a form catalog.

A message such as "1234PB15PS42AAB5AC12" names the observer (1234), the form
prefix (PB), an optional day of month (15), the location (PS42) and the
tagged responses. Each message is stored against one submission per
observer, form and reporting period, and answered with a short reply.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cliparse.LoadDotEnv(".env"); err != nil {
			return err
		}

		resolved, err := cliparse.Resolve(flagCfg)
		if err != nil {
			return err
		}
		cfg = resolved

		logger, err := cliparse.NewLogger(os.Stderr, cfg)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is specified, show help
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Errors are printed once, in color, by printError
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	// Ctrl-C cancels in-flight work; ingest stops reading new messages
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(os.Stderr, err)
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	cliparse.BindFlags(rootCmd.PersistentFlags(), &flagCfg)
}
