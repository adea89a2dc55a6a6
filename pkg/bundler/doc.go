// Package bundler installs gem manifests with Bundler's inline Gemfile
// support.
//
// # Overview
//
// Each install starts one Ruby process and feeds it a generated script on
// stdin, so the manifest is never written to disk:
//
//	require "bundler/inline"
//	gemfile(true, ui: CookgemsUI.new) do
//	  source "https://rubygems.org"
//	  gem "time_ago_in_words", "~> 0.1"
//	end
//
// # Output protocol
//
// With UI support the script installs a Bundler::UI::Silent subclass that
// prints every message as "<level>\t<message>" on stdout, where level is one
// of confirm, error, debug, info or warn. [Relay] parses those lines and
// calls the matching [geminstall.UI] method in order, on the calling
// goroutine. Untagged lines are treated as info. Stderr is collected and
// replayed through the UI once the process exits: as warnings on success,
// as errors on failure.
//
// # Versions
//
// Bundler accepts a ui: keyword for inline Gemfiles from 1.12.0 onwards;
// inline Gemfiles exist from 1.10.0. [Detect] probes the installed Bundler
// once and returns a [*Bundler] (supports an interceptor) or a [*Legacy]
// (plain output to the configured writers).
package bundler
