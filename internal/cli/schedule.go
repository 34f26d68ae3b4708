package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/blockedby/infocompass/internal/pipeline"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the batch on a cron schedule",
	Long: `Keep running and process every configured channel whenever the cron
expression fires (SCHEDULE, default "0 8 * * *"). Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		expr, _ := cmd.Flags().GetString("cron")
		now, _ := cmd.Flags().GetBool("now")

		rt, err := OpenRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if expr == "" {
			expr = rt.Config.Schedule
		}
		return runSchedule(cmd.Context(), cmd.OutOrStdout(), rt, expr, now, opts)
	},
}

func init() {
	addRunFlags(scheduleCmd)
	scheduleCmd.Flags().String("cron", "", "Cron expression, overrides SCHEDULE")
	scheduleCmd.Flags().Bool("now", false, "Also run once immediately")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(ctx context.Context, w io.Writer, rt *Runtime, expr string, runNow bool, opts pipeline.Options) error {
	job := func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		results := rt.Pipeline.ProcessAll(ctx, rt.Config.Channels, opts)
		fmt.Fprint(w, renderBatchReport(results, rt.Config.DataDir, time.Since(start)))
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(expr, job); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}

	if runNow {
		job()
	}

	c.Start()
	fmt.Fprintf(w, "Scheduled batch with cron expression %q\n", expr)

	<-ctx.Done()
	<-c.Stop().Done()
	fmt.Fprintln(w, "Scheduler stopped")
	return nil
}
