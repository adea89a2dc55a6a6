package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cookgems/internal/config"
	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/gemgraph"
	"github.com/matzehuels/cookgems/pkg/geminstall"
	"github.com/matzehuels/cookgems/pkg/httputil"
	"github.com/matzehuels/cookgems/pkg/rubygems"
)

// gemsOptions holds flags for the gems command.
type gemsOptions struct {
	cookbookFlags
	latest  bool
	refresh bool
	json    bool
}

// gemsCommand creates the gems command.
func (c *CLI) gemsCommand() *cobra.Command {
	var opts gemsOptions

	cmd := &cobra.Command{
		Use:   "gems [cookbook-path...]",
		Short: "List the gems declared by cookbooks",
		Long: `List every gem requirement in install order with the cookbooks that
declare it.

With --latest each gem is looked up on the gem source and the latest
published version is checked against the declared constraints. Registry
responses are cached; use --refresh to bypass the cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGems(cmd.Context(), opts, args)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.latest, "latest", false, "check the latest published versions")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the registry cache")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")

	return cmd
}

// gemRecord is one row of gems output.
type gemRecord struct {
	Name        string   `json:"name"`
	Constraints []string `json:"constraints,omitempty"`
	Cookbooks   []string `json:"cookbooks"`
	Latest      string   `json:"latest,omitempty"`
	Satisfied   *bool    `json:"satisfied,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (c *CLI) runGems(ctx context.Context, opts gemsOptions, args []string) error {
	logger := loggerFromContext(ctx)

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

	gems := geminstall.Aggregate(books)
	records := gemRecords(books, gems)

	if opts.latest && len(gems) > 0 {
		done := timed(logger, "checked gem source")
		var statuses []rubygems.Status
		msg := fmt.Sprintf("Checking %s on %s...", plural(len(gems), "gem"), cfg.SourceURL)
		err := spin(ctx, opts.json, msg, func() (err error) {
			statuses, err = registryClient(cfg, logger).Check(ctx, gems, opts.refresh)
			return err
		})
		if err != nil {
			return err
		}
		applyStatuses(records, statuses)
		done("gems", len(gems), "source", cfg.SourceURL)
	}

	if opts.json {
		return printJSON(records)
	}

	if len(records) == 0 {
		printInfo("No cookbook declares a gem")
		return nil
	}
	fmt.Fprintln(stdout, gemsTable(records, opts.latest))
	return nil
}

// gemRecords builds one record per requirement, in install order.
func gemRecords(books *cookbook.Collection, gems []cookbook.GemRequirement) []gemRecord {
	requirers := gemgraph.Requirers(books)
	records := make([]gemRecord, 0, len(gems))
	for _, g := range gems {
		records = append(records, gemRecord{
			Name:        g.Name,
			Constraints: g.Constraints,
			Cookbooks:   requirers[g.Name],
		})
	}
	return records
}

func applyStatuses(records []gemRecord, statuses []rubygems.Status) {
	for i, s := range statuses {
		if i >= len(records) {
			break
		}
		records[i].Latest = s.Latest
		if s.Err != nil {
			records[i].Error = errors.UserMessage(s.Err)
			continue
		}
		ok := s.Satisfied
		records[i].Satisfied = &ok
	}
}

// registryClient returns a client for the configured gem source with the
// response cache attached when it can be opened.
func registryClient(cfg config.Config, logger *log.Logger) *rubygems.Client {
	cache, err := openCache(cfg)
	if err != nil {
		logger.Warn("registry cache disabled", "err", err)
	}
	return rubygems.NewClient(cfg.SourceURL, cache)
}

// openCache opens the registry response cache in the configured directory,
// or the default one.
func openCache(cfg config.Config) (*httputil.Cache, error) {
	return httputil.NewCache(cfg.CacheDir, cfg.CacheTTL.Duration)
}

func gemsTable(records []gemRecord, latest bool) string {
	headers := []string{"Gem", "Constraints", "Cookbooks"}
	if latest {
		headers = append(headers, "Latest", "")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		constraints := strings.Join(r.Constraints, ", ")
		if constraints == "" {
			constraints = "any"
		}
		row := []string{r.Name, constraints, strings.Join(r.Cookbooks, ", ")}
		if latest {
			mark := ""
			switch {
			case r.Error != "":
				mark = iconError + " " + r.Error
			case r.Satisfied != nil && *r.Satisfied:
				mark = iconSuccess
			case r.Satisfied != nil:
				mark = iconWarning + " outside constraints"
			}
			row = append(row, r.Latest, mark)
		}
		rows = append(rows, row)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			switch col {
			case 0:
				return base.Foreground(colorWhite)
			case 4:
				r := records[row]
				switch {
				case r.Error != "":
					return base.Foreground(colorRed)
				case r.Satisfied != nil && !*r.Satisfied:
					return base.Foreground(colorYellow)
				}
				return base.Foreground(colorGreen)
			}
			return base.Foreground(colorGray)
		}).
		Render()
}
