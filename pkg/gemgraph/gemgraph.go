// Package gemgraph renders which cookbooks require which gems as a
// Graphviz diagram.
package gemgraph

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/cookgems/pkg/geminstall"
)

// Options configures the diagram.
type Options struct {
	// Constraints labels cookbook→gem edges with their version constraints.
	Constraints bool
	// Depends draws cookbook→cookbook edges for dependencies present in the
	// collection.
	Depends bool
}

// ToDOT converts a cookbook collection to Graphviz DOT. Cookbooks are boxes,
// gems are ellipses; a gem required by several cookbooks appears once.
func ToDOT(cookbooks geminstall.Cookbooks, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph cookgems {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	names := map[string]bool{}
	var edges []string
	gems := map[string]bool{}

	for name, v := range cookbooks.All() {
		names[name] = true
		label := name
		if v.Version != "" {
			label += "\n" + v.Version
		}
		fmt.Fprintf(&buf, "  %q [shape=box, style=\"rounded,filled\", fillcolor=white, label=%q];\n", cookbookID(name), label)

		for _, g := range v.Gems() {
			gems[g.Name] = true
			attrs := ""
			if opts.Constraints && len(g.Constraints) > 0 {
				attrs = fmt.Sprintf(" [label=%q]", strings.Join(g.Constraints, ", "))
			}
			edges = append(edges, fmt.Sprintf("  %q -> %q%s;\n", cookbookID(name), gemID(g.Name), attrs))
		}
	}

	if opts.Depends {
		for name, v := range cookbooks.All() {
			if v.Metadata == nil {
				continue
			}
			for _, dep := range slices.Sorted(maps.Keys(v.Metadata.Depends)) {
				if names[dep] {
					edges = append(edges, fmt.Sprintf("  %q -> %q [style=dashed];\n", cookbookID(name), cookbookID(dep)))
				}
			}
		}
	}

	for _, g := range slices.Sorted(maps.Keys(gems)) {
		fmt.Fprintf(&buf, "  %q [shape=ellipse, style=filled, fillcolor=lightgrey, label=%q];\n", gemID(g), g)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// Node IDs are prefixed so a gem and a cookbook may share a name.
func cookbookID(name string) string { return "cookbook:" + name }
func gemID(name string) string      { return "gem:" + name }

// RenderSVG renders a DOT graph to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// Gems returns the distinct gem names in the collection, sorted.
func Gems(cookbooks geminstall.Cookbooks) []string {
	seen := map[string]bool{}
	for _, v := range cookbooks.All() {
		for _, g := range v.Gems() {
			seen[g.Name] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Requirers maps each gem name to the cookbooks requiring it, in collection
// order.
func Requirers(cookbooks geminstall.Cookbooks) map[string][]string {
	out := map[string][]string{}
	for name, v := range cookbooks.All() {
		for _, g := range v.Gems() {
			if !slices.Contains(out[g.Name], name) {
				out[g.Name] = append(out[g.Name], name)
			}
		}
	}
	return out
}
