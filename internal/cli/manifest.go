package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// manifestCommand creates the manifest command.
func (c *CLI) manifestCommand() *cobra.Command {
	var (
		flags  cookbookFlags
		script bool
	)

	cmd := &cobra.Command{
		Use:   "manifest [cookbook-path...]",
		Short: "Print the Gemfile an install would use",
		Long: `Print the aggregated gem manifest as a Gemfile, in cookbook order and then
declaration order. With --script the complete Ruby program passed to Bundler
is printed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runManifest(cmd.Context(), flags, args, script)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&script, "script", false, "print the bundler/inline Ruby program")

	return cmd
}

func (c *CLI) runManifest(ctx context.Context, flags cookbookFlags, args []string, script bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cfg, err = flags.apply(cfg, args); err != nil {
		return err
	}
	books, err := loadCookbooks(cfg)
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("loaded cookbooks", "count", books.Len())
	return printManifest(cfg, books, script)
}
