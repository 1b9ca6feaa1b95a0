package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/draft"
)

// draftCommand creates the draft command group. Drafts are stored locally and
// never leave the machine.
func (c *CLI) draftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Save, show or clear the local avatar draft",
	}

	cmd.AddCommand(c.draftSaveCommand())
	cmd.AddCommand(c.draftShowCommand())
	cmd.AddCommand(c.draftClearCommand())

	return cmd
}

func (c *CLI) draftSaveCommand() *cobra.Command {
	var params paramFlags

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save avatar parameters as the draft",
		Long: `Save avatar parameters as the draft.

With --draft, only the flags given on the command line change; the rest of the
saved draft is kept. Drafts are saved even when they would not render, so an
unfinished avatar is never lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newDraftStore()
			if err != nil {
				return err
			}
			p, err := params.resolve(ctx, cmd, store)
			if err != nil {
				return err
			}
			if err := store.Save(ctx, p); err != nil {
				return err
			}
			printSuccess("Saved draft")
			printDraft(p)
			if err := p.Validate(nil); err != nil {
				printWarning("Draft will not render yet: %s", err)
			}
			printFile(store.Path())
			return nil
		},
	}
	params.register(cmd)
	return cmd
}

func (c *CLI) draftShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newDraftStore()
			if err != nil {
				return err
			}
			return showDraft(cmd.Context(), store)
		},
	}
}

func showDraft(ctx context.Context, store draft.Store) error {
	p, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		printInfo("No draft saved")
		return nil
	}
	printDraft(*p)
	printNewline()
	printNextStep("Publish it", "skyavatar publish --draft")
	return nil
}

func (c *CLI) draftClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newDraftStore()
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Cleared draft")
			return nil
		},
	}
}

func printDraft(p avatar.Params) {
	printColorValue("Background", p.Background)
	printKeyValue("Shape", p.Shape)
	printKeyValue("Eyes", p.Eyes)
	printKeyValue("Mouth", p.Mouth)
	printColorValue("Color", p.Color)
	printKeyValue("Rotation", formatRotation(p.Rotation))
}
