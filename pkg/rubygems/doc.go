// Package rubygems reads gem metadata from a RubyGems-compatible registry
// and evaluates RubyGems version constraints.
//
// [Client.Check] answers "which version would a fresh install pick, and does
// it satisfy what the cookbooks ask for?" without touching the local gem
// environment. Responses are cached through [httputil.Cache].
package rubygems
