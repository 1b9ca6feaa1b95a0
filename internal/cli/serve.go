package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nornoe/skyavatar/internal/api"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string
	var renderOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API that renders, previews and publishes avatars.

Without account credentials the server still renders previews; publishing
and the archive answer 401.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), cmd, listen, renderOnly)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides server.listen)")
	cmd.Flags().BoolVar(&renderOnly, "render-only", false, "do not connect an account even if one is configured")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cmd *cobra.Command, listen string, renderOnly bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.Server.Listen = listen
	}

	withAccount := cfg.HasCredentials() && !renderOnly
	if !withAccount {
		c.Logger.Warn("no account configured, publishing is disabled")
	}
	a, err := c.newApp(ctx, cfg, appOptions{Account: withAccount})
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Client != nil {
		did, err := a.Client.DID(ctx)
		if err != nil {
			return err
		}
		c.Logger.Info("logged in", "did", did, "service", a.Client.Service())
	}

	srv := api.New(a.Runner, a.Browser, c.Logger)
	return srv.ListenAndServe(ctx, api.HTTPConfig{
		Addr:         cfg.Server.Listen,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	})
}
