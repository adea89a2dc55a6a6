package geminstall_test

import (
	"fmt"

	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/geminstall"
)

func ExampleClassifyLine() {
	for _, line := range []string{
		"Installing time_ago_in_words 0.1.1",
		"Using rake 13.1.0",
		"Resolving dependencies...",
	} {
		kind, name, version := geminstall.ClassifyLine(line)
		fmt.Println(kind, name, version)
	}
	// Output:
	// installing time_ago_in_words 0.1.1
	// using rake 13.1.0
	// other
}

func ExampleManifest_Gemfile() {
	m := &geminstall.Manifest{
		Source: "https://rubygems.org",
		Gems: []cookbook.GemRequirement{
			cookbook.Gem("time_ago_in_words", "~> 0.1"),
			{Name: "mysql2", Options: map[string]any{"require": false}},
		},
	}
	fmt.Print(m.Gemfile())
	// Output:
	// source "https://rubygems.org"
	//
	// gem "time_ago_in_words", "~> 0.1"
	// gem "mysql2", require: false
}
