package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blockedby/infocompass/internal/pipeline"
)

var channelCmd = &cobra.Command{
	Use:   "channel <name>",
	Short: "Fetch and summarize a single channel",
	Long: `Fetch recent posts of one channel, save them as JSON and write a
Markdown summary. A name without a leading @ gets one.

Examples:
  infocompass channel @durov
  infocompass channel durov --limit 200 --days 7 --prompt "Focus on tech news"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		rt, err := OpenRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		return runChannel(cmd.Context(), cmd.OutOrStdout(), rt.Pipeline, normalizeChannel(args[0]), opts)
	},
}

func init() {
	addRunFlags(channelCmd)
	rootCmd.AddCommand(channelCmd)
}

func addRunFlags(cmd *cobra.Command) {
	def := pipeline.DefaultOptions()
	cmd.Flags().IntP("limit", "l", def.MaxCount, "Maximum number of messages to fetch")
	cmd.Flags().IntP("days", "d", def.DaysBack, "Only fetch messages from the last N days")
	cmd.Flags().StringP("prompt", "p", "", "Custom summary prompt, the messages are appended after it")
}

func runOptionsFromFlags(cmd *cobra.Command) (pipeline.Options, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	days, _ := cmd.Flags().GetInt("days")
	prompt, _ := cmd.Flags().GetString("prompt")

	if limit < 0 {
		return pipeline.Options{}, fmt.Errorf("--limit must not be negative, got %d", limit)
	}
	if days < 1 {
		return pipeline.Options{}, fmt.Errorf("--days must be at least 1, got %d", days)
	}
	return pipeline.Options{MaxCount: limit, DaysBack: days, CustomPrompt: strings.TrimSpace(prompt)}, nil
}

// normalizeChannel prepends @ to bare usernames. Links are left alone.
func normalizeChannel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "@") || strings.Contains(name, "/") {
		return name
	}
	return "@" + name
}

func runChannel(ctx context.Context, w io.Writer, runner Runner, channel string, opts pipeline.Options) error {
	fmt.Fprintf(w, "Processing %s (limit %d, last %d day(s))\n", channel, opts.MaxCount, opts.DaysBack)
	if opts.CustomPrompt != "" {
		fmt.Fprintf(w, "Custom prompt: %s\n", previewSummary(opts.CustomPrompt, 50))
	}

	res, err := runner.Process(ctx, channel, opts)
	if err != nil {
		return err
	}

	fmt.Fprint(w, renderChannelResult(channel, res))
	return nil
}
