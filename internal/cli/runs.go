package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/pkg/runstore"
)

// runsCommand creates the runs command with list and show subcommands.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the install history",
		Long: `Inspect recorded install runs.

Runs are kept in the history directory, or in MongoDB when mongo_uri is
configured.`,
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())

	return cmd
}

func (c *CLI) runsListCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []*runstore.Run{}
				}
				return printJSON(runs)
			}
			if len(runs) == 0 {
				printInfo("No runs recorded yet")
				printNextStep("Start one", "cookgems install")
				return nil
			}
			fmt.Fprintln(stdout, runsTable(runs, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func (c *CLI) runsShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(run)
			}
			printRun(run)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

// openStore opens the configured run history.
func (c *CLI) openStore(ctx context.Context) (runstore.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return runstore.Open(ctx, cfg.RunStore())
}

// printJSON writes v indented, leaving constraint operators such as "~>"
// unescaped.
func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printRun prints the details and gem events of one run.
func printRun(run *runstore.Run) {
	printKeyValue("Run", run.ID)
	printKeyValue("Status", statusStyle(run.Status).Render(string(run.Status)))
	printKeyValue("Started", run.StartedAt.Local().Format(time.DateTime))
	if d := run.Duration(); d > 0 {
		printKeyValue("Duration", d.Round(time.Millisecond).String())
	}
	if run.Source != "" {
		printKeyValue("Source", run.Source)
	}
	if run.Mode != "" {
		printKeyValue("Mode", run.Mode)
	}
	if len(run.Cookbooks) > 0 {
		printKeyValue("Cookbooks", strings.Join(run.Cookbooks, ", "))
	}
	printKeyValue("Gems", fmt.Sprintf("%d declared", len(run.Gems)))
	if run.Error != "" {
		printKeyValue("Error", run.Error)
	}

	if len(run.Events) > 0 {
		printNewline()
		for _, e := range run.Events {
			icon := iconUsing
			if e.Action == runstore.ActionInstalled {
				icon = StyleSuccess.Render(iconInstall)
			}
			fmt.Fprintf(stdout, "  %s %s %s\n", icon, StyleValue.Render(e.Name), StyleDim.Render(e.Version))
		}
	}
}

// printRunSummary prints the one-line result of a finished run.
func printRunSummary(run *runstore.Run) {
	d := run.Duration().Round(time.Millisecond)
	switch run.Status {
	case runstore.StatusSucceeded:
		printSuccess("%d installed, %d already present (%s)",
			run.Count(runstore.ActionInstalled), run.Count(runstore.ActionUsed), d)
	case runstore.StatusFailed:
		printError("Install failed: %s", run.Error)
	}
}

func statusStyle(s runstore.Status) lipgloss.Style {
	switch s {
	case runstore.StatusSucceeded:
		return StyleSuccess
	case runstore.StatusFailed:
		return lipgloss.NewStyle().Foreground(colorRed)
	}
	return StyleWarning
}

func runsTable(runs []*runstore.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		duration := "—"
		if d := r.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			r.ID,
			string(r.Status),
			formatAge(r.StartedAt, now),
			duration,
			fmt.Sprintf("%d", len(r.Gems)),
			fmt.Sprintf("%d", r.Count(runstore.ActionInstalled)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Run", "Status", "Started", "Took", "Gems", "Installed").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if col == 1 {
				return statusStyle(runs[row].Status).Padding(0, 1)
			}
			return base.Foreground(colorGray)
		}).
		Render()
}

// formatAge renders how long ago t was, relative to now.
func formatAge(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
