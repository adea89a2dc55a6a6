package cookbook

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/cookgems/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseMetadataRB(t *testing.T) {
	content := `name             "time_ago"
maintainer       'Ops Team'
license          "Apache-2.0"
description      "Relative timestamps"
version          "1.2.0"

depends "ruby", ">= 2.0"
depends 'build-essential'

# gem "commented_out"
gem "time_ago_in_words", "~> 0.1"
gem 'nokogiri', '>= 1.10', '< 2.0'
gem "pry"
gem("rake", "13.0.6")
gem "mysql2", require: false
`
	md, err := ParseMetadataRB(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParseMetadataRB failed: %v", err)
	}

	if md.Name != "time_ago" || md.Version != "1.2.0" {
		t.Errorf("name/version = %q/%q", md.Name, md.Version)
	}
	if md.Maintainer != "Ops Team" || md.License != "Apache-2.0" || md.Description != "Relative timestamps" {
		t.Errorf("unexpected fields: %+v", md)
	}

	wantDepends := map[string]string{"ruby": ">= 2.0", "build-essential": ""}
	if !reflect.DeepEqual(md.Depends, wantDepends) {
		t.Errorf("Depends = %v, want %v", md.Depends, wantDepends)
	}

	wantGems := []GemRequirement{
		Gem("time_ago_in_words", "~> 0.1"),
		Gem("nokogiri", ">= 1.10", "< 2.0"),
		{Name: "pry"},
		Gem("rake", "13.0.6"),
		{Name: "mysql2"},
	}
	if !reflect.DeepEqual(md.Gems, wantGems) {
		t.Errorf("Gems = %#v, want %#v", md.Gems, wantGems)
	}
}

func TestLoadVersion_JSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a")
	writeFile(t, filepath.Join(dir, "metadata.json"), `{
  "name": "apache",
  "version": "3.0.0",
  "dependencies": {"iptables": ">= 0.0.0"},
  "gems": [["foo", "1.0"], ["bar", ">= 2.0", {"require": false}]]
}`)
	// metadata.rb is ignored when metadata.json exists
	writeFile(t, filepath.Join(dir, "metadata.rb"), `name "ignored"`)

	v, err := LoadVersion(dir)
	if err != nil {
		t.Fatalf("LoadVersion failed: %v", err)
	}
	if v.Name != "apache" || v.Version != "3.0.0" || v.Path != dir {
		t.Errorf("unexpected version: %+v", v)
	}
	if got := len(v.Gems()); got != 2 {
		t.Fatalf("len(Gems) = %d, want 2", got)
	}
	if v.Gems()[1].Options["require"] != false {
		t.Errorf("options not decoded: %#v", v.Gems()[1])
	}
}

func TestLoadVersion_NameFromDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nameless")
	writeFile(t, filepath.Join(dir, "metadata.rb"), `gem "foo"`)

	v, err := LoadVersion(dir)
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "nameless" {
		t.Errorf("Name = %q, want %q", v.Name, "nameless")
	}
}

func TestLoadVersion_Errors(t *testing.T) {
	root := t.TempDir()

	empty := filepath.Join(root, "empty")
	if err := os.MkdirAll(empty, 0755); err != nil {
		t.Fatal(err)
	}
	badJSON := filepath.Join(root, "badjson")
	writeFile(t, filepath.Join(badJSON, "metadata.json"), `{"gems": "nope"}`)
	badGem := filepath.Join(root, "badgem")
	writeFile(t, filepath.Join(badGem, "metadata.json"), `{"name": "badgem", "gems": [["foo bar"]]}`)

	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"no metadata", empty, errors.ErrCodeInvalidCookbook},
		{"invalid json", badJSON, errors.ErrCodeInvalidMetadata},
		{"invalid gem name", badGem, errors.ErrCodeInvalidMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadVersion(tt.path)
			if !errors.Is(err, tt.code) {
				t.Errorf("LoadVersion error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "metadata.rb"), "name 'b'\ngem 'bar', '>= 2.0'\n")
	writeFile(t, filepath.Join(root, "a", "metadata.json"), `{"name": "a", "gems": [["foo", "1.0"]]}`)
	writeFile(t, filepath.Join(root, "notes", "README.md"), "not a cookbook")
	writeFile(t, filepath.Join(root, ".hidden", "metadata.rb"), "name 'hidden'")
	writeFile(t, filepath.Join(root, "stray.txt"), "file")

	c, err := LoadDir(root)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(c.Names(), want) {
		t.Errorf("Names() = %v, want %v", c.Names(), want)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("LoadDir error = %v, want %s", err, errors.ErrCodeNotFound)
	}
}

func TestLoad_KeepsOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "metadata.rb"), "name 'a'")
	writeFile(t, filepath.Join(root, "b", "metadata.rb"), "name 'b'")

	c, err := Load(filepath.Join(root, "b"), filepath.Join(root, "a"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"b", "a"}; !reflect.DeepEqual(c.Names(), want) {
		t.Errorf("Names() = %v, want %v", c.Names(), want)
	}
}

func TestLoad_Duplicate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "metadata.rb"), "name 'same'")
	writeFile(t, filepath.Join(root, "b", "metadata.rb"), "name 'same'")

	_, err := LoadDir(root)
	if !errors.Is(err, errors.ErrCodeDuplicateCookbook) {
		t.Errorf("LoadDir error = %v, want %s", err, errors.ErrCodeDuplicateCookbook)
	}
}

func TestDiscover_MixedPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "site", "nginx", "metadata.rb"), "name 'nginx'")
	writeFile(t, filepath.Join(root, "site", "apt", "metadata.rb"), "name 'apt'")
	writeFile(t, filepath.Join(root, "app", "metadata.json"), `{"name": "app"}`)

	c, err := Discover(filepath.Join(root, "app"), filepath.Join(root, "site"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"app", "apt", "nginx"}; !reflect.DeepEqual(c.Names(), want) {
		t.Errorf("Names() = %v, want %v", c.Names(), want)
	}
}

func TestDiscover_DuplicateAcrossPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one", "x", "metadata.rb"), "name 'x'")
	writeFile(t, filepath.Join(root, "two", "x", "metadata.rb"), "name 'x'")

	_, err := Discover(filepath.Join(root, "one"), filepath.Join(root, "two"))
	if !errors.Is(err, errors.ErrCodeDuplicateCookbook) {
		t.Errorf("Discover error = %v, want %s", err, errors.ErrCodeDuplicateCookbook)
	}
}
