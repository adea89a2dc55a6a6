// Package pkg provides the libraries behind cookgems, which installs the Ruby
// gems that Chef cookbooks declare in their metadata.
//
// # Overview
//
// A cookbook's metadata may list gems (`gem "chef-vault", "~> 4.0"`) that its
// recipes need at converge time. cookgems gathers those declarations across
// a collection of cookbooks and installs them in a single Bundler run,
// reporting each gem as it is installed or reused.
//
// # Architecture
//
// The data flow for one install:
//
//	metadata.json / metadata.rb
//	         ↓
//	    [cookbook] package (load and validate cookbooks)
//	         ↓
//	    [geminstall] package (aggregate requirements, build the manifest)
//	         ↓
//	    [bundler] package (run bundler/inline, relay its output)
//	         ↓
//	    [geminstall.Interceptor] → [geminstall.EventSink]
//	         ↓
//	    console / [events] (history, Redis)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/cookgems/pkg/bundler"
//	    "github.com/matzehuels/cookgems/pkg/cookbook"
//	    "github.com/matzehuels/cookgems/pkg/geminstall"
//	)
//
//	books, _ := cookbook.Discover("cookbooks")
//	sub, _, _ := bundler.Detect(ctx, bundler.Options{})
//	in, _ := geminstall.New(books, sink, sub, geminstall.Options{})
//	err := in.Install(ctx)
//
// # Main Packages
//
// ## Domain
//
// [cookbook] - Cookbook metadata, gem requirements and ordered collections.
// Loads metadata.json, falling back to a restricted metadata.rb reader.
//
// [geminstall] - The installer: aggregates requirements in cookbook order,
// chooses whether the subsystem can take an output interceptor, and
// guarantees Start followed by exactly one of Finished or Failed.
//
// [bundler] - The install subsystem. Probes Ruby and Bundler, renders a
// bundler/inline program and relays Bundler's UI over a line protocol.
//
// [rubygems] - RubyGems version semantics (pessimistic constraints,
// prerelease segments) and a registry client for latest-version checks.
//
// ## Reporting and persistence
//
// [events] - Event sinks: fan-out, structured logging, run recording and
// Redis publishing.
//
// [runstore] - Run history backends: a JSON file store and MongoDB.
//
// [gemgraph] - Graphviz diagrams of which cookbooks require which gems.
//
// ## Infrastructure
//
// [httputil] - File-based response cache and retry helpers.
//
// [errors] - Coded errors and input validation.
//
// [observability] - Hooks for install and command metrics.
//
// [buildinfo] - Version information set at link time.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/geminstall/...         # Specific package
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./...      # Include Ruby, MongoDB and Redis tests
//
// [cookbook]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/cookbook
// [geminstall]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/geminstall
// [geminstall.Interceptor]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/geminstall#Interceptor
// [geminstall.EventSink]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/geminstall#EventSink
// [bundler]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/bundler
// [rubygems]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/rubygems
// [events]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/events
// [runstore]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/runstore
// [gemgraph]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/gemgraph
// [httputil]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/cookgems/pkg/buildinfo
package pkg
