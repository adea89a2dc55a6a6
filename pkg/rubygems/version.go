package rubygems

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses a RubyGems version such as "2.4.10" or "2.5.0.pre.1".
// Segments after the third, and anything from the first non-numeric
// segment on, become a semver prerelease tag.
func ParseVersion(raw string) (*semver.Version, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	core := parts
	var pre []string
	for i, p := range parts {
		if i >= 3 || !numeric(p) {
			core, pre = parts[:i], parts[i:]
			break
		}
	}
	s := strings.Join(core, ".")
	if len(pre) > 0 {
		s += "-" + strings.Join(pre, ".")
	}
	return semver.NewVersion(s)
}

func numeric(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

// Satisfies reports whether version meets every RubyGems constraint. An
// empty constraint list accepts any version.
func Satisfies(constraints []string, version string) (bool, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return false, fmt.Errorf("version %q: %w", version, err)
	}
	var parts []string
	for _, c := range constraints {
		p, err := translate(c)
		if err != nil {
			return false, err
		}
		parts = append(parts, p...)
	}
	if len(parts) == 0 {
		return true, nil
	}
	sc, err := semver.NewConstraint(strings.Join(parts, ", "))
	if err != nil {
		return false, fmt.Errorf("constraint %q: %w", strings.Join(constraints, ", "), err)
	}
	return sc.Check(v), nil
}

var operators = []string{"~>", ">=", "<=", "!=", "=", ">", "<"}

// translate rewrites one RubyGems requirement as semver constraints.
// "~> 1.2" becomes ">= 1.2, < 2"; "~> 1.2.3" becomes ">= 1.2.3, < 1.3".
func translate(c string) ([]string, error) {
	c = strings.TrimSpace(c)
	op := "="
	for _, o := range operators {
		if strings.HasPrefix(c, o) {
			op = o
			c = strings.TrimSpace(strings.TrimPrefix(c, o))
			break
		}
	}
	if c == "" {
		return nil, fmt.Errorf("empty version in constraint")
	}
	if _, err := ParseVersion(c); err != nil {
		return nil, fmt.Errorf("constraint version %q: %w", c, err)
	}
	if op != "~>" {
		return []string{op + " " + c}, nil
	}

	var segs []int
	for _, p := range strings.Split(c, ".") {
		if !numeric(p) {
			break
		}
		n, _ := strconv.Atoi(p)
		segs = append(segs, n)
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("constraint version %q has no numeric segment", c)
	}
	if len(segs) > 1 {
		segs = segs[:len(segs)-1]
	}
	segs[len(segs)-1]++
	upper := make([]string, len(segs))
	for i, n := range segs {
		upper[i] = strconv.Itoa(n)
	}
	return []string{">= " + c, "< " + strings.Join(upper, ".")}, nil
}
