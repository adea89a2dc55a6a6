package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/events"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		redisURL string
		channel  string
		runID    string
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow install events published to Redis",
		Long: `Subscribe to the Redis channel installs publish to and print each event.

Runs started with redis_url configured (or install --redis) publish there.
With --once the command exits after the first run finishes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if redisURL != "" {
				cfg.RedisURL = redisURL
			}
			if channel != "" {
				cfg.RedisChannel = channel
			}
			if cfg.RedisURL == "" {
				return errors.New(errors.ErrCodeInvalidConfig, "no redis url configured (use --redis or redis_url)")
			}

			client, err := events.ConnectRedis(ctx, cfg.RedisURL)
			if err != nil {
				return err
			}
			defer client.Close()

			printInfo("Watching %s", StyleHighlight.Render(cfg.RedisChannel))
			return events.Watch(ctx, client, cfg.RedisChannel, func(e events.Event) bool {
				if runID != "" && e.RunID != runID {
					return true
				}
				printEvent(e)
				return !(once && e.Terminal())
			})
		},
	}

	cmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL (default: config redis_url)")
	cmd.Flags().StringVar(&channel, "channel", "", "channel (default: config or cookgems:events)")
	cmd.Flags().StringVar(&runID, "run", "", "only show events of this run")
	cmd.Flags().BoolVar(&once, "once", false, "exit after the first run finishes")

	return cmd
}

// printEvent prints one published event.
func printEvent(e events.Event) {
	ts := StyleDim.Render(e.Time.Local().Format(time.TimeOnly))
	run := StyleDim.Render(shortID(e.RunID))

	var msg string
	switch e.Type {
	case events.TypeStart:
		names := make([]string, len(e.Gems))
		for i, g := range e.Gems {
			names[i] = g.Name
		}
		msg = fmt.Sprintf("started, %s", plural(len(e.Gems), "gem"))
		if len(names) > 0 {
			msg += StyleDim.Render(" (" + strings.Join(names, ", ") + ")")
		}
	case events.TypeInstalling:
		msg = StyleSuccess.Render(iconInstall) + " " + e.Gem + " " + StyleDim.Render(e.Version)
	case events.TypeUsing:
		msg = StyleDim.Render(iconUsing + " " + e.Gem + " " + e.Version)
	case events.TypeFinished:
		msg = styleIconSuccess.Render(iconSuccess) + " finished"
	case events.TypeFailed:
		msg = styleIconError.Render(iconError) + " failed: " + e.Error
	default:
		msg = string(e.Type)
	}
	fmt.Fprintf(stdout, "%s %s %s\n", ts, run, msg)
}

// shortID abbreviates a run ID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
