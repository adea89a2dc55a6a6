package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/gemgraph"
)

// graphOptions holds flags for the graph command.
type graphOptions struct {
	cookbookFlags
	format      string
	output      string
	constraints bool
	depends     bool
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOptions

	cmd := &cobra.Command{
		Use:   "graph [cookbook-path...]",
		Short: "Draw which cookbooks require which gems",
		Long: `Draw cookbooks and the gems they declare as a Graphviz diagram.

The DOT source is printed by default. --format svg renders it with the
embedded Graphviz, so no dot binary is needed.`,
		Example: `  cookgems graph cookbooks | dot -Tpng > gems.png
  cookgems graph cookbooks --format svg -o gems.svg --depends`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), opts, args)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "dot", "output format: dot or svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.constraints, "constraints", true, "label edges with version constraints")
	cmd.Flags().BoolVar(&opts.depends, "depends", false, "draw cookbook dependencies")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, opts graphOptions, args []string) error {
	logger := loggerFromContext(ctx)

	if opts.format != "dot" && opts.format != "svg" {
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot or svg)", opts.format)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cfg, err = opts.apply(cfg, args); err != nil {
		return err
	}
	books, err := loadCookbooks(cfg)
	if err != nil {
		return err
	}

	done := timed(logger, "rendered graph")
	data := []byte(gemgraph.ToDOT(books, gemgraph.Options{
		Constraints: opts.constraints,
		Depends:     opts.depends,
	}))
	if opts.format == "svg" {
		if data, err = gemgraph.RenderSVG(ctx, string(data)); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
	}

	if opts.output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	done("format", opts.format, "cookbooks", books.Len())
	printSuccess("Wrote graph of %s", plural(books.Len(), "cookbook"))
	printFile(opts.output)
	return nil
}
