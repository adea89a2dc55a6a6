package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/pkg/httputil"
)

// cacheCommand manages the cache of gem source responses used by
// "gems --latest".
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached gem source responses",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached gem source response",
		Args:  cobra.NoArgs,
		RunE: c.withCache(func(cache *httputil.Cache) error {
			n, err := cache.Clear()
			if err != nil {
				return err
			}
			if n == 0 {
				printInfo("Nothing cached in %s", cache.Dir())
				return nil
			}
			printSuccess("Removed %s", plural(n, "cached response"))
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: c.withCache(func(cache *httputil.Cache) error {
			_, err := fmt.Fprintln(stdout, cache.Dir())
			return err
		}),
	})

	return cmd
}

// withCache opens the configured cache before running fn.
func (c *CLI) withCache(fn func(*httputil.Cache) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := c.loadConfig()
		if err != nil {
			return err
		}
		cache, err := openCache(cfg)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		return fn(cache)
	}
}
