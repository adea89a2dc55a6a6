package cli

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/internal/config"
	"github.com/matzehuels/cookgems/pkg/buildinfo"
	"github.com/matzehuels/cookgems/pkg/bundler"
	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/geminstall"
	"github.com/matzehuels/cookgems/pkg/observability"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cookgems",
		Short: "cookgems installs the Ruby gems your Chef cookbooks declare",
		Long: `cookgems collects the gem requirements declared in Chef cookbook metadata
and installs them in one Bundler run, reporting each gem as it is installed
or reused.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			hooks := observability.Logged{Logger: c.Logger}
			observability.SetInstallHooks(hooks)
			observability.SetCommandHooks(hooks)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/cookgems/config.toml)")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.gemsCommand())
	root.AddCommand(c.manifestCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.doctorCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Helpers
// =============================================================================

// loadConfig reads the config file and environment.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// cookbookFlags are the flags shared by every command that reads cookbooks.
type cookbookFlags struct {
	cookbooks []string
	source    string
}

func (f *cookbookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.cookbooks, "cookbooks", "c", nil, "cookbook or cookbook directory (repeatable)")
	cmd.Flags().StringVar(&f.source, "source", "", "gem source URL (default: config or https://rubygems.org)")
}

// apply layers flags and positional arguments over cfg.
func (f *cookbookFlags) apply(cfg config.Config, args []string) (config.Config, error) {
	paths := append(append([]string{}, f.cookbooks...), args...)
	if len(paths) > 0 {
		cfg.Cookbooks = paths
	}
	if f.source != "" {
		cfg.SourceURL = f.source
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadCookbooks loads the configured cookbooks, defaulting to the working
// directory.
func loadCookbooks(cfg config.Config) (*cookbook.Collection, error) {
	paths := cfg.Cookbooks
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return cookbook.Discover(paths...)
}

// bundlerOptions maps the config onto the bundler subsystem.
func bundlerOptions(cfg config.Config, logger *log.Logger) bundler.Options {
	return bundler.Options{
		Ruby:    cfg.Ruby,
		GemHome: cfg.GemHome,
		Logger:  logger,
	}
}

// detectSubsystem probes Ruby behind a spinner.
func detectSubsystem(ctx context.Context, cfg config.Config, logger *log.Logger, quiet bool) (sub geminstall.Subsystem, info *bundler.Info, err error) {
	err = spin(ctx, quiet, "Detecting Ruby and Bundler...", func() error {
		sub, info, err = bundler.Detect(ctx, bundlerOptions(cfg, logger))
		return err
	})
	return sub, info, err
}

// reportedError marks an error the command has already shown the user.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already printed by the command that
// returned it.
func Reported(err error) bool {
	var r reportedError
	return stderrors.As(err, &r)
}
