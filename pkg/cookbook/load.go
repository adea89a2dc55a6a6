package cookbook

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/cookgems/pkg/errors"
)

const (
	metadataJSON = "metadata.json"
	metadataRB   = "metadata.rb"
)

// LoadDir loads every cookbook found directly under dir.
//
// A subdirectory is a cookbook when it contains metadata.json or metadata.rb;
// other entries are skipped. Cookbooks are ordered lexically by directory
// name.
func LoadDir(dir string) (*Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "cookbook directory %s", dir)
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if hasMetadata(path) {
			paths = append(paths, path)
		}
	}
	return Load(paths...)
}

// Load loads the cookbooks at the given directories, keeping their order.
func Load(paths ...string) (*Collection, error) {
	c := &Collection{byName: make(map[string]*Version, len(paths))}
	for _, path := range paths {
		v, err := LoadVersion(path)
		if err != nil {
			return nil, err
		}
		if err := c.Add(v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Discover loads cookbooks from a mix of paths. A path holding metadata is
// loaded as one cookbook; any other directory is scanned like LoadDir.
// Paths are visited in order and names must be unique across all of them.
func Discover(paths ...string) (*Collection, error) {
	c := &Collection{byName: make(map[string]*Version)}
	for _, path := range paths {
		if hasMetadata(path) {
			v, err := LoadVersion(path)
			if err != nil {
				return nil, err
			}
			if err := c.Add(v); err != nil {
				return nil, err
			}
			continue
		}
		sub, err := LoadDir(path)
		if err != nil {
			return nil, err
		}
		for _, v := range sub.All() {
			if err := c.Add(v); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// LoadVersion loads a single cookbook directory. metadata.json takes
// precedence over metadata.rb when both exist.
func LoadVersion(path string) (*Version, error) {
	md, err := readMetadata(path)
	if err != nil {
		return nil, err
	}
	if md.Name == "" {
		md.Name = filepath.Base(path)
	}
	if err := validateGems(md, path); err != nil {
		return nil, err
	}
	return &Version{
		Name:     md.Name,
		Version:  md.Version,
		Path:     path,
		Metadata: md,
	}, nil
}

func hasMetadata(dir string) bool {
	for _, name := range []string{metadataJSON, metadataRB} {
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil && !fi.IsDir() {
			return true
		}
	}
	return false
}

func readMetadata(dir string) (*Metadata, error) {
	if data, err := os.ReadFile(filepath.Join(dir, metadataJSON)); err == nil {
		var md Metadata
		if err := json.Unmarshal(data, &md); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "%s", filepath.Join(dir, metadataJSON))
		}
		return &md, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	f, err := os.Open(filepath.Join(dir, metadataRB))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeInvalidCookbook, "%s: no metadata.json or metadata.rb", dir)
		}
		return nil, err
	}
	defer f.Close()
	return ParseMetadataRB(f)
}

func validateGems(md *Metadata, path string) error {
	for _, g := range md.Gems {
		if err := errors.ValidateGemName(g.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMetadata, err, "cookbook %s (%s)", md.Name, path)
		}
		for _, c := range g.Constraints {
			if err := errors.ValidateConstraint(c); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidMetadata, err, "cookbook %s: gem %s", md.Name, g.Name)
			}
		}
	}
	return nil
}

var (
	fieldPattern   = regexp.MustCompile(`^\s*(name|version|description|license|maintainer)\s*\(?\s*['"]([^'"]*)['"]`)
	dependsPattern = regexp.MustCompile(`^\s*depends\s*\(?\s*['"]([^'"]+)['"](?:\s*,\s*['"]([^'"]+)['"])?`)
	gemPattern     = regexp.MustCompile(`^\s*gem\s*\(?\s*['"]([^'"]+)['"](.*)$`)
	argPattern     = regexp.MustCompile(`^\s*,\s*['"]([^'"]*)['"]`)
)

// ParseMetadataRB extracts name, version, description, license, maintainer,
// depends and gem declarations from a metadata.rb file.
//
// Only literal string arguments are understood. Keyword options on gem lines
// are ignored; use metadata.json to declare them.
func ParseMetadataRB(r io.Reader) (*Metadata, error) {
	md := &Metadata{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		// Skip comments
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		if m := gemPattern.FindStringSubmatch(line); m != nil {
			md.Gems = append(md.Gems, GemRequirement{Name: m[1], Constraints: gemArgs(m[2])})
			continue
		}
		if m := dependsPattern.FindStringSubmatch(line); m != nil {
			if md.Depends == nil {
				md.Depends = make(map[string]string)
			}
			md.Depends[m[1]] = m[2]
			continue
		}
		if m := fieldPattern.FindStringSubmatch(line); m != nil {
			switch m[1] {
			case "name":
				md.Name = m[2]
			case "version":
				md.Version = m[2]
			case "description":
				md.Description = m[2]
			case "license":
				md.License = m[2]
			case "maintainer":
				md.Maintainer = m[2]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "read metadata.rb")
	}
	return md, nil
}

// gemArgs reads the string arguments that follow the gem name, stopping at
// the first non-string argument.
func gemArgs(rest string) []string {
	var args []string
	for {
		m := argPattern.FindStringSubmatchIndex(rest)
		if m == nil {
			return args
		}
		args = append(args, rest[m[2]:m[3]])
		rest = rest[m[1]:]
	}
}
