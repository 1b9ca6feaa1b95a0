package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/pipeline"
	"github.com/nornoe/skyavatar/pkg/publish"
)

type publishOpts struct {
	params    paramFlags
	check     bool // only report the remaining cooldown
	saveDraft bool // save the parameters as the draft after publishing
}

// publishCommand creates the publish command, which renders an avatar and
// sets it as the account's profile picture.
func (c *CLI) publishCommand() *cobra.Command {
	var opts publishOpts

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Render an avatar and set it as your Bluesky profile picture",
		Long: `Render an avatar, upload it, set it as the profile avatar and append it to the avatar archive.

Publishing is limited to once per cooldown window (5 minutes by default).
Use --check to see how long is left without publishing.`,
		Example: `  skyavatar publish --shape hexagon --eyes star --mouth open
  skyavatar publish --draft
  skyavatar publish --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPublish(cmd.Context(), cmd, &opts)
		},
	}

	opts.params.register(cmd)
	cmd.Flags().BoolVar(&opts.check, "check", false, "only report the remaining cooldown")
	cmd.Flags().BoolVar(&opts.saveDraft, "save-draft", false, "save the parameters as the draft after publishing")

	return cmd
}

func (c *CLI) runPublish(ctx context.Context, cmd *cobra.Command, opts *publishOpts) error {
	drafts, err := c.newDraftStore()
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	a, err := c.newApp(ctx, cfg, appOptions{Account: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.check {
		return c.runCooldownCheck(ctx, a.Runner.Gate)
	}

	params, err := opts.params.resolve(ctx, cmd, drafts)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Publishing avatar...")
	spinner.Start()
	result, err := a.Runner.Execute(ctx, pipeline.Options{Params: params})
	if err != nil {
		spinner.Stop()
		if spinner.Cancelled() {
			return ctx.Err()
		}
		return explainPublishError(err)
	}
	spinner.StopWithSuccess("Published " + describeParams(params))

	printRenderStats(result)
	printKeyValue("Record", result.Record.URI)
	printKeyValue("Blob", result.Record.BlobRef.Link)

	if opts.saveDraft {
		if err := drafts.Save(ctx, params); err != nil {
			printWarning("Could not save draft: %v", err)
		} else {
			printDetail("Saved as draft")
		}
	}
	printNewline()
	printNextStep("Browse your archive", "skyavatar archive browse")
	return nil
}

func (c *CLI) runCooldownCheck(ctx context.Context, gate *publish.Gate) error {
	remaining, err := gate.Remaining(ctx)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		printSuccess("Ready to publish")
		return nil
	}
	printInfo("Cooldown active: %s remaining", formatRemaining(remaining))
	printDetail("Window: %s", gate.Cooldown())
	return nil
}

// explainPublishError turns gate errors into messages that say what was
// already changed on the account.
func explainPublishError(err error) error {
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) {
		return fmt.Errorf("cooldown active: try again in %s", formatRemaining(time.Duration(rl.RetryAfter)*time.Second))
	}
	var se *publish.StageError
	if stderrors.As(err, &se) && se.Partial() {
		printWarning("Publish stopped during %s; already done: %v", se.Stage, se.Committed)
	}
	return err
}

// formatRemaining rounds up to whole seconds, matching the Retry-After value
// the HTTP API reports.
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	secs := (d + time.Second - 1) / time.Second
	return (secs * time.Second).String()
}
