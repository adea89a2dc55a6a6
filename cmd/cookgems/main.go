// Command cookgems installs the Ruby gems declared by Chef cookbooks.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/internal/cli"
	"github.com/matzehuels/cookgems/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	cancel()
	os.Exit(exitCode(err))
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Flags are parsed by the time PersistentPreRun fires, so the level is
	// set before any subcommand logs.
	attach := root.PersistentPreRun
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		attach(cmd, args)
	}

	return root.ExecuteContext(ctx)
}

// exitCode prints err unless a command already did and maps it to a
// process status. Interrupted runs exit 130 like a shell would.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, context.Canceled):
		return 130
	}
	if !cli.Reported(err) {
		fmt.Fprintln(os.Stderr, "Error:", errors.UserMessage(err))
	}
	return 1
}
