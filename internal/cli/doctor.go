package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/internal/config"
	"github.com/matzehuels/cookgems/pkg/bundler"
	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/events"
	"github.com/matzehuels/cookgems/pkg/geminstall"
	"github.com/matzehuels/cookgems/pkg/runstore"
)

// doctorCommand creates the doctor command.
func (c *CLI) doctorCommand() *cobra.Command {
	var flags cookbookFlags

	cmd := &cobra.Command{
		Use:   "doctor [cookbook-path...]",
		Short: "Check Ruby, Bundler, cookbooks and backends",
		Long: `Check everything an install needs: the config file, the cookbooks, the
Ruby runtime and its Bundler version, the run history backend and, when
configured, the Redis event channel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor(cmd.Context(), flags, args)
		},
	}

	flags.register(cmd)

	return cmd
}

func (c *CLI) runDoctor(ctx context.Context, flags cookbookFlags, args []string) error {
	failed := false
	fail := func(format string, a ...any) {
		failed = true
		printError(format, a...)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		fail("Config: %s", errors.UserMessage(err))
		return reportedError{err}
	}
	if cfg, err = flags.apply(cfg, args); err != nil {
		fail("Config: %s", errors.UserMessage(err))
		return reportedError{err}
	}
	printSuccess("Config %s", StyleDim.Render(configSource(c.configPath)))
	printDetail("Gem source: %s", cfg.SourceURL)

	if books, err := loadCookbooks(cfg); err != nil {
		fail("Cookbooks: %s", errors.UserMessage(err))
	} else {
		printSuccess("%s declaring %s", plural(books.Len(), "cookbook"), plural(len(geminstall.Aggregate(books)), "gem"))
	}

	info, err := bundler.Probe(ctx, bundlerOptions(cfg, loggerFromContext(ctx)))
	switch {
	case err != nil:
		fail("Ruby: %s", errors.UserMessage(err))
	case !info.SupportsInline():
		fail("Bundler %s is too old (need >= %s)", info.BundlerRaw, bundler.MinInlineVersion)
	case !info.SupportsUI():
		printSuccess("Ruby %s", info.RubyVersion)
		printWarning("Bundler %s has no output UI; installs run without per-gem progress (need >= %s)",
			info.BundlerRaw, bundler.MinUIVersion)
	default:
		printSuccess("Ruby %s, Bundler %s", info.RubyVersion, info.BundlerRaw)
		printDetail("Mode: %s", geminstall.ModeWithInterceptor)
	}

	checkHistory(ctx, cfg, fail)

	if cfg.RedisURL != "" {
		client, err := events.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			fail("Redis: %s", errors.UserMessage(err))
		} else {
			client.Close()
			printSuccess("Redis reachable")
			printDetail("Channel: %s", cfg.RedisChannel)
		}
	}

	if failed {
		return reportedError{errors.New(errors.ErrCodeInvalidConfig, "doctor found problems")}
	}
	return nil
}

func checkHistory(ctx context.Context, cfg config.Config, fail func(string, ...any)) {
	store, err := runstore.Open(ctx, cfg.RunStore())
	if err != nil {
		fail("History: %s", errors.UserMessage(err))
		return
	}
	defer store.Close()

	runs, err := store.List(ctx, 1)
	if err != nil {
		fail("History: %s", errors.UserMessage(err))
		return
	}
	where := cfg.HistoryDir
	if cfg.MongoURI != "" {
		where = fmt.Sprintf("mongodb (%s)", cfg.MongoDatabase)
	}
	printSuccess("History %s", StyleDim.Render(where))
	if len(runs) > 0 {
		printDetail("Last run: %s, %s", runs[0].Status, formatAge(runs[0].StartedAt, time.Now()))
	}
}

func configSource(path string) string {
	if path != "" {
		return path
	}
	if p := config.DefaultPath(); p != "" {
		return p
	}
	return "defaults"
}
