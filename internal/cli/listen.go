package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blockedby/infocompass/internal/config"
	"github.com/blockedby/infocompass/internal/nats"
	"github.com/blockedby/infocompass/internal/pipeline"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print digest.ready events from NATS as they arrive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.NatsURL == "" {
			return errors.New("NATS_URL is not set")
		}
		durable, _ := cmd.Flags().GetString("consumer")

		ctx := cmd.Context()
		nc, err := nats.New(ctx, cfg.NatsURL)
		if err != nil {
			return err
		}
		defer nc.Close()

		if err := nc.EnsureDigestStream(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		err = nc.Subscribe(ctx, nats.DigestStream, durable, nats.DigestReadySubject, func(data []byte) error {
			return printDigestEvent(out, data)
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Listening on %s (Ctrl-C to stop)\n", nats.DigestReadySubject)
		<-ctx.Done()
		return nil
	},
}

func init() {
	listenCmd.Flags().String("consumer", "infocompass-listen", "Durable consumer name")
	rootCmd.AddCommand(listenCmd)
}

func printDigestEvent(w io.Writer, data []byte) error {
	var ev pipeline.DigestEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode digest event: %w", err)
	}
	fmt.Fprintf(w, "%s  %-24s %3d messages  %s\n",
		ev.CreatedAt.Local().Format("2006-01-02 15:04"), ev.Channel, ev.MessageCount, ev.SummaryFile)
	return nil
}

