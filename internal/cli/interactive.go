package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blockedby/infocompass/internal/pipeline"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Choose channels and options from a menu",
	Args:  cobra.NoArgs,
	RunE:  runInteractiveCmd,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractiveCmd(cmd *cobra.Command, args []string) error {
	rt, err := OpenRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	return runInteractive(cmd.Context(), promptFor(cmd), cmd.OutOrStdout(), rt.Pipeline, rt.Config.Channels, rt.Config.DataDir)
}

func runInteractive(ctx context.Context, p *linePrompter, w io.Writer, runner Runner, channels []string, dataDir string) error {
	fmt.Fprintln(w, titleStyle.Render("InfoCompass"))
	fmt.Fprintln(w, mutedStyle.Render("Filter noise. Distill essence. Pierce the fog."))
	fmt.Fprintln(w)

	var channel string
	if len(channels) > 0 {
		fmt.Fprintf(w, "%d configured channel(s):\n", len(channels))
		listChannels(w, channels)

		fmt.Fprintln(w, "\nMode:")
		fmt.Fprintln(w, "  1. Process all configured channels")
		fmt.Fprintln(w, "  2. Pick one configured channel")
		fmt.Fprintln(w, "  3. Enter a channel manually")

		choice, err := p.Ask("Choose 1-3", "1")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			opts, err := askRunOptions(p)
			if err != nil {
				return err
			}
			return runBatch(ctx, w, runner, channels, dataDir, opts)
		case "2":
			listChannels(w, channels)
			answer, err := p.Ask(fmt.Sprintf("Choose 1-%d", len(channels)), "")
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(answer)
			if err != nil || n < 1 || n > len(channels) {
				fmt.Fprintln(w, "Invalid selection.")
				return nil
			}
			channel = channels[n-1]
		}
	}

	if channel == "" {
		name, err := p.Ask("Channel username (e.g. @channelname)", "")
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(w, "Channel name cannot be empty.")
			return nil
		}
		channel = normalizeChannel(name)
	}

	opts, err := askRunOptions(p)
	if err != nil {
		return err
	}
	return runChannel(ctx, w, runner, channel, opts)
}

func listChannels(w io.Writer, channels []string) {
	for i, ch := range channels {
		fmt.Fprintf(w, "  %d. %s\n", i+1, ch)
	}
}

func askRunOptions(p *linePrompter) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()

	limit, err := p.AskInt("Message limit", opts.MaxCount)
	if err != nil {
		return opts, err
	}
	days, err := p.AskInt("Days back", opts.DaysBack)
	if err != nil {
		return opts, err
	}
	prompt, err := p.Ask("Custom summary prompt (optional)", "")
	if err != nil {
		return opts, err
	}

	if limit >= 0 {
		opts.MaxCount = limit
	}
	if days >= 1 {
		opts.DaysBack = days
	}
	opts.CustomPrompt = prompt
	return opts, nil
}
