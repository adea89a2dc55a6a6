package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/internal/server"
	"github.com/matzehuels/cookgems/pkg/buildinfo"
	"github.com/matzehuels/cookgems/pkg/events"
	"github.com/matzehuels/cookgems/pkg/runstore"
)

// serveOptions holds flags for the serve command.
type serveOptions struct {
	cookbookFlags
	listen   string
	readOnly bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve [cookbook-path...]",
		Short: "Serve the install history and trigger installs over HTTP",
		Long: `Start an HTTP server exposing the run history.

  GET  /healthz      liveness
  GET  /runs         recent runs (?limit=N)
  GET  /runs/{id}    one run
  POST /runs         install the configured cookbooks

Cookbooks are reloaded for every POST. Installs are serialized. With
--read-only POST /runs is rejected and Ruby is not required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts, args)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (default: config or 127.0.0.1:8750)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "disable POST /runs")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions, args []string) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cfg, err = opts.apply(cfg, args); err != nil {
		return err
	}
	if opts.listen != "" {
		cfg.Listen = opts.listen
	}

	store, err := runstore.Open(ctx, cfg.RunStore())
	if err != nil {
		return err
	}
	defer store.Close()

	var install server.InstallFunc
	if !opts.readOnly {
		sub, info, err := detectSubsystem(ctx, cfg, logger, true)
		if err != nil {
			return err
		}
		logger.Info("using bundler", "version", info.BundlerRaw, "ruby", info.RubyVersion)

		env := installEnv{cfg: cfg, sub: sub, store: store}
		if cfg.RedisURL != "" {
			env.redis = connectRedis(ctx, cfg.RedisURL, logger)
			if env.redis != nil {
				defer env.redis.Close()
			}
		}
		install = env.serverInstall(logger)
	}

	srv, err := server.New(server.Options{
		Store:   store,
		Install: install,
		Logger:  logger,
		Version: buildinfo.Version,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Listen)
}

// serverInstall adapts installEnv to the server's trigger. Cookbooks are
// loaded per call so edits are picked up without a restart.
func (e installEnv) serverInstall(logger *log.Logger) server.InstallFunc {
	return func(ctx context.Context) (*runstore.Run, error) {
		books, err := loadCookbooks(e.cfg)
		if err != nil {
			return nil, err
		}
		return e.run(ctx, books, events.LogSink{Logger: logger}, logger)
	}
}
