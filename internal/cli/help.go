// Package cli provides the command-line interface for the harvester.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds guided documentation commands.
func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newExamplesCmd())
	rootCmd.AddCommand(newQuickstartCmd())
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		Long:  "Display examples of common harvesting workflows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflows")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "First Harvest",
					commands: []string{
						"harvester config show            # Review the loaded configuration",
						"harvester run --dry-run          # Preview signals without sending",
						"harvester run                    # Harvest and deliver for real",
					},
				},
				{
					title: "Scheduled Harvesting",
					commands: []string{
						"*/30 * * * * harvester run --json >> harvest.log",
						"harvester state show             # Check the watermark between runs",
					},
				},
				{
					title: "Rescanning History",
					commands: []string{
						"harvester run --full --dry-run   # Reread the whole channel, preview only",
						"harvester state reset            # Forget all watermarks",
						"harvester state reset -1001234567890  # Forget one channel",
					},
				},
				{
					title: "Scripting",
					commands: []string{
						"harvester run --json             # Machine-readable run summary",
						"harvester state show --json      # Machine-readable state",
						"harvester run --limit 50 -v      # Bounded run with progress output",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText("# "+strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}

			return nil
		},
	}
}

func newQuickstartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "New user guide",
		Long:  "Step-by-step guide for setting up the harvester.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Telegram Financial Harvester - Quick Start Guide")
			output.Println()

			steps := []struct {
				step  int
				title string
				desc  string
				cmd   string
			}{
				{
					step:  1,
					title: "Create the Config Files",
					desc:  "The first invocation writes template config files and exits.",
					cmd:   "harvester config path  # Shows the config directory",
				},
				{
					step:  2,
					title: "Add Credentials",
					desc:  "Fill in credentials.toml, or export API_ID, API_HASH, OPENAI_API_KEY, WEBHOOK_URL and WEBHOOK_API_KEY.",
					cmd:   "harvester config show  # Credentials appear masked when loaded",
				},
				{
					step:  3,
					title: "Point at Your Channel",
					desc:  "Set telegram.channel_id in config.toml. The bot must be a member of the channel.",
					cmd:   "harvester config validate",
				},
				{
					step:  4,
					title: "Preview a Harvest",
					desc:  "Parse the channel without sending anything or saving state.",
					cmd:   "harvester run --dry-run",
				},
				{
					step:  5,
					title: "Go Live",
					desc:  "Harvest new posts and deliver the extracted signals.",
					cmd:   "harvester run",
				},
				{
					step:  6,
					title: "Schedule It",
					desc:  "Runs are incremental, so a cron job only processes new posts.",
					cmd:   "*/30 * * * * harvester run --json >> harvest.log",
				},
			}

			for _, s := range steps {
				output.Printf("%s Step %d: %s\n", output.Cyan("→"), s.step, output.BoldText(s.title))
				output.Printf("  %s\n", s.desc)
				output.Printf("  %s\n\n", output.DimText(s.cmd))
			}

			output.Bold("Configuration Files")
			output.Println()
			output.Printf("  %s - API credentials (Telegram bot, OpenAI, webhook)\n", output.Cyan("credentials.toml"))
			output.Printf("  %s - Channel, extraction, and state settings\n", output.Cyan("config.toml"))
			output.Println()

			output.Bold("Getting Help")
			output.Println()
			output.Printf("  %s - Common workflows\n", output.Cyan("harvester examples"))
			output.Printf("  %s - Help for any command\n", output.Cyan("harvester help <command>"))
			output.Println()

			output.Bold("Important Notes")
			output.Println()
			output.Printf("  %s The webhook deduplicates signals, so rerunning after a failure is safe\n", output.Yellow("⚠"))
			output.Printf("  %s Dry runs and full scans never advance the watermark\n", output.Yellow("⚠"))
			output.Printf("  %s Keep credentials.toml private; it is written with owner-only permissions\n", output.Yellow("⚠"))

			return nil
		},
	}
}
