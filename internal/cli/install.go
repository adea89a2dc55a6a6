package cli

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/internal/config"
	"github.com/matzehuels/cookgems/pkg/bundler"
	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/events"
	"github.com/matzehuels/cookgems/pkg/geminstall"
	"github.com/matzehuels/cookgems/pkg/runstore"
)

// installOptions holds flags for the install command.
type installOptions struct {
	cookbookFlags
	ruby      string
	gemHome   string
	redisURL  string
	tui       bool
	dryRun    bool
	noHistory bool
}

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var opts installOptions

	cmd := &cobra.Command{
		Use:   "install [cookbook-path...]",
		Short: "Install the gems declared by cookbook metadata",
		Long: `Install every gem declared by the given cookbooks in one Bundler run.

Each path is a cookbook (a directory with metadata.json or metadata.rb) or a
directory of cookbooks. Without paths the configured cookbooks, or the current
directory, are used. Progress is reported per gem when the installed Bundler
supports it.`,
		Example: `  # Install gems for every cookbook under ./cookbooks
  cookgems install cookbooks

  # Use a private gem mirror and a dedicated GEM_HOME
  cookgems install -c cookbooks --source https://gems.example.com --gem-home /opt/chef/gems

  # Show the generated Gemfile without running Ruby
  cookgems install cookbooks --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd.Context(), opts, args)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.ruby, "ruby", "", "Ruby executable (default: ruby on PATH)")
	cmd.Flags().StringVar(&opts.gemHome, "gem-home", "", "GEM_HOME to install into")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "publish events to this Redis URL")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show interactive progress")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the manifest instead of installing")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the run")

	return cmd
}

func (c *CLI) runInstall(ctx context.Context, opts installOptions, args []string) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cfg, err = opts.apply(cfg, args); err != nil {
		return err
	}
	if opts.ruby != "" {
		cfg.Ruby = opts.ruby
	}
	if opts.gemHome != "" {
		cfg.GemHome = opts.gemHome
	}
	if opts.redisURL != "" {
		cfg.RedisURL = opts.redisURL
	}

	books, err := loadCookbooks(cfg)
	if err != nil {
		return err
	}
	if opts.dryRun {
		return printManifest(cfg, books, false)
	}

	sub, info, err := detectSubsystem(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	printInfo("Ruby %s, Bundler %s %s", StyleValue.Render(info.RubyVersion), StyleValue.Render(info.BundlerRaw),
		StyleDim.Render("("+geminstall.ModeOf(sub).String()+")"))

	env := installEnv{cfg: cfg, sub: sub}
	if !opts.noHistory {
		env.store = openHistory(ctx, cfg, logger)
		if env.store != nil {
			defer env.store.Close()
		}
	}
	if cfg.RedisURL != "" {
		env.redis = connectRedis(ctx, cfg.RedisURL, logger)
		if env.redis != nil {
			defer env.redis.Close()
		}
	}

	var run *runstore.Run
	if opts.tui {
		run, err = env.runTUI(ctx, books, logger)
	} else {
		run, err = env.run(ctx, books, newConsoleSink(cfg.SourceURL), logger)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if env.store != nil && run != nil {
		printNextStep("Show this run", "cookgems runs show "+run.ID)
	}
	if err != nil {
		return reportedError{err}
	}
	return nil
}

// installEnv carries everything one install run needs besides the
// cookbooks, so the CLI and the server can share it.
type installEnv struct {
	cfg   config.Config
	sub   geminstall.Subsystem
	store runstore.Store // nil keeps runs in memory
	redis *redis.Client  // nil disables publishing
}

// run installs books once, reporting to display and to the history and
// Redis sinks. The run record is returned even when the install fails.
func (e installEnv) run(ctx context.Context, books *cookbook.Collection, display geminstall.EventSink, logger *log.Logger) (*runstore.Run, error) {
	rec := events.NewRecorder(e.store, events.RecorderOptions{
		Source:    e.cfg.SourceURL,
		Mode:      geminstall.ModeOf(e.sub).String(),
		Cookbooks: books.Names(),
		Logger:    logger,
	})

	sinks := []geminstall.EventSink{display, rec}
	if e.redis != nil {
		sinks = append(sinks, events.NewRedisPublisher(e.redis, e.cfg.RedisChannel, rec.ID(), logger))
	}

	in, err := geminstall.New(books, events.NewMulti(sinks...), e.sub, geminstall.Options{
		SourceURL: e.cfg.SourceURL,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	err = in.Install(ctx)
	return rec.Run(), err
}

// runTUI runs the install behind an interactive progress view. Quitting the
// view cancels the install.
func (e installEnv) runTUI(ctx context.Context, books *cookbook.Collection, logger *log.Logger) (*runstore.Run, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewInstallModel(e.cfg.SourceURL, cancel))
	tuiLogger := newLogger(&tuiWriter{p: p}, logger.GetLevel())

	var (
		run        *runstore.Run
		installErr error
		done       = make(chan struct{})
	)
	go func() {
		defer close(done)
		run, installErr = e.run(ctx, books, tuiSink{p: p}, tuiLogger)
		p.Send(doneMsg{err: installErr})
	}()

	final, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return run, err
	}

	if m, ok := final.(InstallModel); ok && m.Cancelled {
		return run, context.Canceled
	}
	if run != nil {
		printRunSummary(run)
	}
	return run, installErr
}

// openHistory opens the run store. Failures are logged and disable history
// rather than the install.
func openHistory(ctx context.Context, cfg config.Config, logger *log.Logger) runstore.Store {
	store, err := runstore.Open(ctx, cfg.RunStore())
	if err != nil {
		logger.Warn("run history disabled", "err", err)
		return nil
	}
	return store
}

// connectRedis connects to the event channel's server. Failures are logged
// and disable publishing.
func connectRedis(ctx context.Context, url string, logger *log.Logger) *redis.Client {
	client, err := events.ConnectRedis(ctx, url)
	if err != nil {
		logger.Warn("event publishing disabled", "err", err)
		return nil
	}
	return client
}

// printManifest prints the Gemfile for books, or the full Ruby program when
// script is set.
func printManifest(cfg config.Config, books *cookbook.Collection, script bool) error {
	m := &geminstall.Manifest{Source: cfg.SourceURL, Gems: geminstall.Aggregate(books)}
	out := m.Gemfile()
	if script {
		out = bundler.Script(m, true)
	}
	_, err := io.WriteString(stdout, out)
	return err
}
