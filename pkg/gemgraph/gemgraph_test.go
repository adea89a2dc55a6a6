package gemgraph

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/cookgems/pkg/cookbook"
)

func testCollection(t *testing.T) *cookbook.Collection {
	t.Helper()
	c, err := cookbook.NewCollection(
		&cookbook.Version{Name: "base", Version: "1.0.0", Metadata: &cookbook.Metadata{
			Gems: []cookbook.GemRequirement{cookbook.Gem("rake", ">= 13")},
		}},
		&cookbook.Version{Name: "app", Metadata: &cookbook.Metadata{
			Depends: map[string]string{"base": ">= 0.0.0", "missing": "~> 1.0"},
			Gems: []cookbook.GemRequirement{
				cookbook.Gem("rake"),
				cookbook.Gem("time_ago_in_words", "~> 0.1"),
			},
		}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testCollection(t), Options{Constraints: true, Depends: true})

	for _, want := range []string{
		"digraph cookgems {",
		`"cookbook:base" [shape=box`,
		`label="base\n1.0.0"`,
		`"gem:rake" [shape=ellipse`,
		`"cookbook:base" -> "gem:rake" [label=">= 13"];`,
		`"cookbook:app" -> "gem:rake";`,
		`"cookbook:app" -> "gem:time_ago_in_words" [label="~> 0.1"];`,
		`"cookbook:app" -> "cookbook:base" [style=dashed];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "missing") {
		t.Errorf("DOT should not draw dependencies outside the collection:\n%s", dot)
	}
	if n := strings.Count(dot, `"gem:rake" [shape`); n != 1 {
		t.Errorf("gem node declared %d times, want 1", n)
	}
}

func TestToDOTPlain(t *testing.T) {
	dot := ToDOT(testCollection(t), Options{})
	if strings.Contains(dot, "label=\">= 13\"") || strings.Contains(dot, "dashed") {
		t.Errorf("plain DOT has optional decorations:\n%s", dot)
	}
}

func TestGemsAndRequirers(t *testing.T) {
	c := testCollection(t)

	if got := strings.Join(Gems(c), ","); got != "rake,time_ago_in_words" {
		t.Errorf("Gems() = %s", got)
	}

	req := Requirers(c)
	if got := strings.Join(req["rake"], ","); got != "base,app" {
		t.Errorf("Requirers[rake] = %s", got)
	}
	if got := strings.Join(req["time_ago_in_words"], ","); got != "app" {
		t.Errorf("Requirers[time_ago_in_words] = %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testCollection(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("output is not SVG: %.200s", svg)
	}
}
