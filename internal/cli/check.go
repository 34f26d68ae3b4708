package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [channel...]",
	Short: "Check that channels resolve with the stored session",
	Long: `Connect to Telegram and resolve each channel given on the command line,
or every configured channel when none is given. Nothing is fetched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := OpenTelegram(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		channels := rt.Config.Channels
		if len(args) > 0 {
			channels = args
		}
		return runCheck(cmd.Context(), cmd.OutOrStdout(), rt.Checker, channels)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(ctx context.Context, w io.Writer, checker ChannelChecker, channels []string) error {
	if len(channels) == 0 {
		fmt.Fprintln(w, "No channels configured. Set TELEGRAM_CHANNELS or CHANNELS_FILE.")
		return nil
	}
	if err := checker.Connect(ctx); err != nil {
		return err
	}
	fmt.Fprintf(w, "Telegram: %s\n", checker.GetStatus())

	var missing int
	for _, ch := range channels {
		ch = normalizeChannel(ch)
		ok, err := checker.ChannelExists(ctx, ch)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			missing++
			fmt.Fprintf(w, "  %-30s %s\n", ch, statusFail.Render("error: "+err.Error()))
		case ok:
			fmt.Fprintf(w, "  %-30s %s\n", ch, statusOK.Render("ok"))
		default:
			missing++
			fmt.Fprintf(w, "  %-30s %s\n", ch, statusFail.Render("not found"))
		}
	}

	fmt.Fprintf(w, "\n%d of %d channel(s) reachable\n", len(channels)-missing, len(channels))
	return nil
}
