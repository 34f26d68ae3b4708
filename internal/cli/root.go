// Package cli implements the infocompass command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockedby/infocompass/internal/config"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

const envHint = `Create a .env file (or run "infocompass init") with at least:

  TELEGRAM_API_ID=<from https://my.telegram.org/apps>
  TELEGRAM_API_HASH=<from https://my.telegram.org/apps>
  GEMINI_API_KEY=<from https://aistudio.google.com/app/apikey>
  TELEGRAM_CHANNELS=@channel1,@channel2`

var rootCmd = &cobra.Command{
	Use:   "infocompass",
	Short: "InfoCompass - digests of recent Telegram channel posts",
	Long: `InfoCompass fetches recent posts from Telegram channels, stores them
as JSON and writes an AI generated Markdown summary next to them.

Run without a command for the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runInteractiveCmd,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "infocompass %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. An interrupted run is not an error.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), envHint)
		fmt.Fprintln(rootCmd.ErrOrStderr())
	}
	return err
}
