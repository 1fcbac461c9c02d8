// Package cli provides the command-line interface for the harvester.
package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
	"github.com/bluzername/telegram-financial-harvester/internal/logging"
	"github.com/bluzername/telegram-financial-harvester/internal/models"
	"github.com/bluzername/telegram-financial-harvester/internal/pipeline"
)

func newRunCmd(app *App) *cobra.Command {
	var (
		fullScan  bool
		dryRun    bool
		verbose   bool
		limit     int
		channelID int64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest new channel posts and forward extracted signals",
		Long: `Fetch the posts the channel received since the last run, extract trading
signals from them, and send each signal to the configured webhook.

A dry run parses and prints signals without sending anything and leaves the
watermark untouched. A full scan rereads the channel from the beginning and
never advances the watermark.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if err := app.Config.RequireCredentials(dryRun); err != nil {
				return err
			}
			if app.Store == nil {
				return fmt.Errorf("state store unavailable")
			}

			target := channelID
			if target == 0 {
				target = app.Config.Telegram.ChannelID
			}
			if target == 0 {
				return fmt.Errorf("no channel configured: set telegram.channel_id or pass --channel")
			}

			runID := uuid.NewString()[:8]
			logger := logging.WithRunID(app.Logger, runID)

			var progress pipeline.Progress
			if !output.IsJSON() {
				printRunBanner(output, dryRun, fullScan)
				progress = &runProgress{output: output, verbose: verbose}
			}

			p := pipeline.New(app.Source, app.Extractor, app.Deliverer, app.Store, logger)
			summary, err := p.Run(cmd.Context(), pipeline.Options{
				ChannelID: target,
				FullScan:  fullScan,
				DryRun:    dryRun,
				Limit:     limit,
				Workers:   app.Config.Extract.Workers,
				Progress:  progress,
			})
			if err != nil {
				// Run failures are reported, not escalated; the exit code
				// stays zero so schedulers retry on their own cadence.
				output.Error("Pipeline run failed: %v", err)
				if errors.Is(err, apperrors.ErrChannelAccess) {
					output.Dim("Check that the bot is a member of channel %d.", target)
				}
				logger.Error().Err(err).Msg("Run aborted")
				return nil
			}

			if output.IsJSON() {
				return output.JSON(summaryJSON(summary, runID, dryRun))
			}
			printSummary(output, summary, dryRun)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fullScan, "full", false, "rescan the whole channel, ignoring the watermark")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse messages without sending signals or saving state")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-batch progress")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after collecting this many messages (0 = no limit)")
	cmd.Flags().Int64Var(&channelID, "channel", 0, "channel ID to harvest (default: telegram.channel_id)")

	return cmd
}

// runProgress renders pipeline milestones for the terminal.
type runProgress struct {
	output  *Output
	verbose bool
}

func (p *runProgress) Collected(count int) {
	if p.verbose {
		p.output.Dim("   Fetched %d messages...", count)
	}
}

func (p *runProgress) Extracted(done, total int) {
	if p.verbose {
		p.output.Dim("   Parsed %d/%d messages...", done, total)
	}
}

func (p *runProgress) SignalFound(messageID int64, sig *models.Signal) {
	p.output.Success("   Found signal: %s (%s)", sig.Ticker, sig.TransactionType)
}

func (p *runProgress) Preview(sig *models.Signal) {
	p.output.Info("   [DRY RUN] Would send: %s %s - %s", sig.Ticker, sig.TransactionType, sig.PoliticianName)
}

func printRunBanner(output *Output, dryRun, fullScan bool) {
	output.Rule()
	output.Bold("POLITICIAN TRADING SIGNAL PIPELINE")
	output.Printf("Started: %s\n", time.Now().UTC().Format(time.RFC3339))
	if dryRun {
		output.Warning("MODE: DRY RUN (no signals will be sent)")
	}
	if fullScan {
		output.Warning("MODE: FULL SCAN (ignoring saved watermark)")
	}
	output.Rule()
}

func printSummary(output *Output, summary *pipeline.Summary, dryRun bool) {
	output.Println()
	output.Rule()
	output.Bold("PIPELINE RUN COMPLETE")
	output.Printf("   Channel:            %s\n", summary.Channel)
	output.Printf("   Messages processed: %d\n", summary.TotalMessages)
	output.Printf("   Signals found:      %d\n", summary.SignalsFound)
	if dryRun {
		output.Info("   Dry run: no signals sent, watermark unchanged")
	} else {
		output.Printf("   Signals sent:       %d\n", summary.SignalsSent)
		output.Printf("   Duplicates skipped: %d\n", summary.Duplicates)
		if summary.Errors > 0 {
			output.Error("   Errors:             %d", summary.Errors)
			for _, f := range summary.Failures {
				output.Dim("     %s: %s", f.Ticker, f.Reason)
			}
		} else {
			output.Printf("   Errors:             0\n")
		}
	}
	output.Rule()
}

func summaryJSON(summary *pipeline.Summary, runID string, dryRun bool) map[string]interface{} {
	failures := make([]string, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		failures = append(failures, f.Error())
	}
	return map[string]interface{}{
		"run_id":             runID,
		"dry_run":            dryRun,
		"channel":            summary.Channel,
		"messages_processed": summary.TotalMessages,
		"signals_found":      summary.SignalsFound,
		"signals_sent":       summary.SignalsSent,
		"duplicates":         summary.Duplicates,
		"errors":             summary.Errors,
		"failures":           failures,
	}
}
