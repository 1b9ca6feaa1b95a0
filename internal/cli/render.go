package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nornoe/skyavatar/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	params  paramFlags
	output  string // output PNG path
	size    int    // thumbnail edge length; 0 keeps the full size
	noCache bool   // skip the overlay and artifact cache
	refresh bool   // re-render even on an artifact cache hit
}

// renderCommand creates the render command, which writes an avatar PNG
// without publishing it.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{output: "avatar.png"}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an avatar to a PNG file",
		Example: `  skyavatar render --shape heart --eyes wink --color "#ff6600" -o heart.png
  skyavatar render --draft --rotation 90 --size 128`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), cmd, &opts)
		},
	}

	opts.params.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output file")
	cmd.Flags().IntVar(&opts.size, "size", 0, fmt.Sprintf("downscale to this edge length (%d-%d)", pipeline.MinSize, pipeline.MaxSize))
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore a cached render")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cmd *cobra.Command, opts *renderOpts) error {
	drafts, err := c.newDraftStore()
	if err != nil {
		return err
	}
	params, err := opts.params.resolve(ctx, cmd, drafts)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	a, err := c.newApp(ctx, cfg, appOptions{NoCache: opts.noCache})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx = withLogger(ctx, c.Logger)
	prog := newProgress(loggerFromContext(ctx))
	result, err := a.Runner.Render(ctx, pipeline.Options{Params: params, Size: opts.size, Refresh: opts.refresh})
	if err != nil {
		return err
	}
	prog.done("Rendered avatar")

	if err := os.WriteFile(opts.output, result.PNG, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	printSuccess("Rendered %s", describeParams(params))
	printRenderStats(result)
	printFile(opts.output)
	printNewline()
	printNextStep("Publish it", "skyavatar publish "+paramArgs(params))
	return nil
}
