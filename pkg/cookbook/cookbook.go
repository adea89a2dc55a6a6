package cookbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// GemRequirement mirrors a single gem declaration in cookbook metadata.
//
// Constraints are passed through to the install subsystem verbatim; an empty
// list means any version. Options carries Bundler keyword options such as
// require or platforms.
type GemRequirement struct {
	Name        string
	Constraints []string
	Options     map[string]any
}

// Gem is a convenience constructor for a requirement without options.
func Gem(name string, constraints ...string) GemRequirement {
	return GemRequirement{Name: name, Constraints: constraints}
}

// String formats the requirement as "name (c1, c2)".
func (g GemRequirement) String() string {
	if len(g.Constraints) == 0 {
		return g.Name
	}
	return fmt.Sprintf("%s (%s)", g.Name, strings.Join(g.Constraints, ", "))
}

// Args returns the requirement as the positional argument list of a gem
// declaration: name, then each constraint.
func (g GemRequirement) Args() []string {
	return append([]string{g.Name}, g.Constraints...)
}

// MarshalJSON encodes the requirement as a tuple:
// ["name", "constraint"..., {options}]. Constraint operators are not
// HTML-escaped, so encoders with SetEscapeHTML(false) print "~> 1.1" as is.
func (g GemRequirement) MarshalJSON() ([]byte, error) {
	tuple := make([]any, 0, len(g.Constraints)+2)
	tuple = append(tuple, g.Name)
	for _, c := range g.Constraints {
		tuple = append(tuple, c)
	}
	if len(g.Options) > 0 {
		tuple = append(tuple, g.Options)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tuple); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON decodes the tuple form produced by MarshalJSON and by Chef's
// compiled metadata. A trailing object is read as options.
func (g *GemRequirement) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("gem requirement must be an array: %w", err)
	}
	if len(tuple) == 0 {
		return fmt.Errorf("gem requirement is empty")
	}

	var req GemRequirement
	if err := json.Unmarshal(tuple[0], &req.Name); err != nil {
		return fmt.Errorf("gem name must be a string: %w", err)
	}
	for i, raw := range tuple[1:] {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			if i != len(tuple)-2 {
				return fmt.Errorf("gem %s: options must be the last element", req.Name)
			}
			if err := json.Unmarshal(raw, &req.Options); err != nil {
				return fmt.Errorf("gem %s: invalid options: %w", req.Name, err)
			}
			continue
		}
		var c string
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("gem %s: constraint must be a string: %w", req.Name, err)
		}
		req.Constraints = append(req.Constraints, c)
	}

	*g = req
	return nil
}

// Metadata holds the parts of cookbook metadata cookgems reads.
type Metadata struct {
	Name        string            `json:"name"`
	Version     string            `json:"version,omitempty"`
	Description string            `json:"description,omitempty"`
	License     string            `json:"license,omitempty"`
	Maintainer  string            `json:"maintainer,omitempty"`
	Depends     map[string]string `json:"dependencies,omitempty"`
	Gems        []GemRequirement  `json:"gems,omitempty"`
}

// Version is a single loaded cookbook.
type Version struct {
	Name     string    // Cookbook name (from metadata, or the directory name)
	Version  string    // Cookbook version (may be empty)
	Path     string    // Directory the cookbook was loaded from (may be empty)
	Metadata *Metadata // Parsed metadata (never nil for loaded cookbooks)
}

// Gems returns the gem requirements declared by the cookbook.
// It is safe to call on a Version with nil Metadata.
func (v *Version) Gems() []GemRequirement {
	if v == nil || v.Metadata == nil {
		return nil
	}
	return v.Metadata.Gems
}
