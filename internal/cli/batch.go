package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/blockedby/infocompass/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Summarize every configured channel",
	Long: `Run the channel pipeline for each channel in TELEGRAM_CHANNELS and
CHANNELS_FILE, one after another. A failing channel is reported and the
batch moves on; the command still exits 0.`,
	Args: cobra.NoArgs,
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

		if batchJSON {
			return runBatchJSON(cmd.Context(), cmd.OutOrStdout(), rt.Pipeline, rt.Config.Channels, opts)
		}
		return runBatch(cmd.Context(), cmd.OutOrStdout(), rt.Pipeline, rt.Config.Channels, rt.Config.DataDir, opts)
	},
}

var batchJSON bool

func init() {
	addRunFlags(batchCmd)
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print the batch result as JSON instead of a report")
	rootCmd.AddCommand(batchCmd)
}

// runBatchJSON prints the result object keyed by channel, in processing order.
func runBatchJSON(ctx context.Context, w io.Writer, runner Runner, channels []string, opts pipeline.Options) error {
	results := runner.ProcessAll(ctx, channels, opts)
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch result: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func runBatch(ctx context.Context, w io.Writer, runner Runner, channels []string, dataDir string, opts pipeline.Options) error {
	if len(channels) == 0 {
		fmt.Fprintln(w, "No channels configured. Set TELEGRAM_CHANNELS or CHANNELS_FILE.")
		return nil
	}

	fmt.Fprintf(w, "Processing %d channel(s)\n", len(channels))
	if opts.CustomPrompt != "" {
		fmt.Fprintf(w, "Custom prompt: %s\n", previewSummary(opts.CustomPrompt, 50))
	}

	start := time.Now()
	results := runner.ProcessAll(ctx, channels, opts)
	fmt.Fprint(w, renderBatchReport(results, dataDir, time.Since(start)))
	return nil
}
