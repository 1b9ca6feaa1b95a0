package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nornoe/skyavatar/pkg/config"
	"github.com/nornoe/skyavatar/pkg/journal"
)

// journalCommand shows recent publish attempts from the configured journal.
func (c *CLI) journalCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent publish attempts and the stage each reached",
		Long: `Show recent publish attempts and the stage each reached.

The journal is only persistent with the mongo backend (MONGO_URI or
[journal] backend = "mongo"); the memory journal lives inside one server
process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Journal.Backend != config.JournalMongo {
				printWarning("The memory journal is not shared between processes")
				printNextStep("Configure a persistent journal", "export MONGO_URI=mongodb://localhost:27017")
				return nil
			}
			j, err := c.newJournal(ctx, cfg.Journal)
			if err != nil {
				return err
			}
			if mj, ok := j.(*journal.MongoJournal); ok {
				defer func() {
					closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
					defer cancel()
					_ = mj.Close(closeCtx)
				}()
			}
			entries, err := j.Recent(ctx, limit)
			if err != nil {
				return err
			}
			printJournal(entries, time.Now())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of attempts to show")
	return cmd
}

func printJournal(entries []journal.Entry, now time.Time) {
	if len(entries) == 0 {
		printInfo("No publish attempts recorded")
		return
	}
	fmt.Println(journalTable(entries, now).Render())
}

func journalTable(entries []journal.Entry, now time.Time) *table.Table {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		stage := e.Stage
		if stage == "" {
			stage = "-"
		}
		outcome := "running"
		switch {
		case e.Done() && e.Error == "":
			outcome = iconSuccess + " done"
		case e.Done():
			outcome = iconError + " " + e.Error
		}
		rows[i] = []string{formatRelativeTime(e.StartedAt, now), e.DID, stage, outcome}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Started", "Account", "Stage", "Outcome").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col != 3 || row >= len(entries) {
				return base
			}
			e := entries[row]
			switch {
			case !e.Done():
				return base.Foreground(colorYellow)
			case e.Error != "":
				return base.Foreground(colorRed)
			default:
				return base.Foreground(colorGreen)
			}
		})
}
