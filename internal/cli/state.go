// Package cli provides the command-line interface for the harvester.
package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newStateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and manage pipeline state",
		Long:  "View per-channel watermarks and the delivered counter, or reset them.",
	}

	cmd.AddCommand(newStateShowCmd(app))
	cmd.AddCommand(newStateResetCmd(app))

	return cmd
}

func newStateShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show watermarks and the delivered counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("state store unavailable")
			}

			channels := app.Store.Channels()
			delivered := app.Store.DeliveredCount()

			if output.IsJSON() {
				byChannel := make(map[string]int64, len(channels))
				for id, last := range channels {
					byChannel[strconv.FormatInt(id, 10)] = last
				}
				return output.JSON(map[string]interface{}{
					"channels":        byChannel,
					"total_processed": delivered,
				})
			}

			if len(channels) == 0 {
				output.Info("No channels tracked yet.")
			} else {
				ids := make([]int64, 0, len(channels))
				for id := range channels {
					ids = append(ids, id)
				}
				sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

				table := NewTable(output, "CHANNEL", "LAST MESSAGE ID")
				for _, id := range ids {
					table.AddRow(strconv.FormatInt(id, 10), strconv.FormatInt(channels[id], 10))
				}
				table.Render()
			}
			output.Println()
			output.Printf("Signals delivered: %d\n", delivered)
			return nil
		},
	}
}

func newStateResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [channel-id]",
		Short: "Reset watermarks",
		Long: `Reset the watermark for one channel, or for every channel when no ID is
given. The next run after a reset reprocesses the channel from the start.
The delivered counter is preserved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("state store unavailable")
			}

			var channelID int64
			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid channel ID %q", args[0])
				}
				channelID = id
			}

			if err := app.Store.Reset(channelID); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]bool{"reset": true})
			}
			if channelID == 0 {
				output.Success("All channel watermarks reset")
			} else {
				output.Success("Watermark reset for channel %d", channelID)
			}
			return nil
		},
	}
}
