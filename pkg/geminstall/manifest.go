package geminstall

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/cookgems/pkg/cookbook"
)

// Manifest is the in-memory install request for a single run: a package
// source plus every gem requirement in aggregation order. It is built right
// before the subsystem is called and never persisted.
type Manifest struct {
	Source string
	Gems   []cookbook.GemRequirement
}

// Gemfile renders the manifest in Bundler's Gemfile DSL:
//
//	source "https://rubygems.org"
//
//	gem "foo", "1.0"
//	gem "bar", ">= 2.0", require: false
func (m *Manifest) Gemfile() string {
	var b strings.Builder
	fmt.Fprintf(&b, "source %s\n", RubyString(m.Source))
	if len(m.Gems) > 0 {
		b.WriteString("\n")
	}
	for _, g := range m.Gems {
		b.WriteString(GemLine(g))
		b.WriteString("\n")
	}
	return b.String()
}

// GemLine renders a single requirement as a Gemfile gem call.
func GemLine(g cookbook.GemRequirement) string {
	args := make([]string, 0, len(g.Constraints)+len(g.Options)+1)
	for _, a := range g.Args() {
		args = append(args, RubyString(a))
	}
	for _, k := range slices.Sorted(maps.Keys(g.Options)) {
		args = append(args, rubyKey(k)+" "+RubyValue(g.Options[k]))
	}
	return "gem " + strings.Join(args, ", ")
}

// RubyString quotes s as a Ruby double-quoted string literal. Interpolation
// and escape sequences in s are neutralized.
func RubyString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '#':
			b.WriteString(`\#`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// RubyValue renders a decoded JSON-like value as a Ruby literal.
func RubyValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return RubyString(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []string:
		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = RubyString(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = RubyValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			parts = append(parts, rubyKey(k)+" "+RubyValue(v[k]))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return RubyString(fmt.Sprint(v))
	}
}

var symbolKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// rubyKey renders a hash key, using the symbol shorthand when possible.
func rubyKey(k string) string {
	if symbolKey.MatchString(k) {
		return k + ":"
	}
	return RubyString(k) + " =>"
}
