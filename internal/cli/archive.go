package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nornoe/skyavatar/pkg/archive"
	"github.com/nornoe/skyavatar/pkg/avatar"
)

// archiveCommand creates the archive command group.
func (c *CLI) archiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect previously published avatars",
	}

	cmd.AddCommand(c.archiveListCommand())
	cmd.AddCommand(c.archiveBrowseCommand())

	return cmd
}

// archiveListCommand creates the "archive list" subcommand.
func (c *CLI) archiveListCommand() *cobra.Command {
	var limit int
	var cursor string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print archived avatars, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			browser, done, err := c.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			return c.runArchiveList(cmd.Context(), browser, limit, cursor, all)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", archive.DefaultLimit, fmt.Sprintf("records per page (max %d)", archive.MaxLimit))
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue from a previous page")
	cmd.Flags().BoolVar(&all, "all", false, "follow cursors until the archive is exhausted")

	return cmd
}

func (c *CLI) runArchiveList(ctx context.Context, browser *archive.Browser, limit int, cursor string, all bool) error {
	if !all {
		page, err := browser.List(ctx, limit, cursor)
		if err != nil {
			return err
		}
		printArchiveTable(page.Records)
		if page.Cursor != "" && len(page.Records) > 0 {
			printNextStep("Next page", "skyavatar archive list --cursor "+page.Cursor)
		}
		return nil
	}

	var records []avatar.ArchiveRecord
	err := archive.Walk(ctx, browser, limit, func(p *archive.Page) error {
		records = append(records, p.Records...)
		return nil
	})
	if err != nil {
		return err
	}
	printArchiveTable(records)
	printDetail("%d avatars", len(records))
	return nil
}

// archiveBrowseCommand creates the "archive browse" subcommand, an
// interactive list that loads pages on demand.
func (c *CLI) archiveBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse archived avatars interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			browser, done, err := c.openArchive(ctx)
			if err != nil {
				return err
			}
			defer done()

			model := NewArchiveModel(ctx, browser)
			final, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
			if err != nil {
				return err
			}
			m, ok := final.(ArchiveModel)
			if !ok || m.Selected == nil {
				return nil
			}
			printSuccess("Selected avatar from %s", m.Selected.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
			printKeyValue("Record", m.Selected.URI)
			printNextStep("Publish it again", "skyavatar publish "+paramArgs(m.Selected.Meta))
			return nil
		},
	}
}

// openArchive loads configuration and connects the account.
func (c *CLI) openArchive(ctx context.Context) (*archive.Browser, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := c.newApp(ctx, cfg, appOptions{Account: true, NoCache: true})
	if err != nil {
		return nil, nil, err
	}
	return a.Browser, a.Close, nil
}
