// Package geminstall installs the gems declared by a cookbook collection.
//
// # Overview
//
// An [Installer] walks a cookbook collection, aggregates every declared gem
// requirement into one ordered list, and hands that list to an external
// install [Subsystem] exactly once. Progress is reported to an [EventSink]:
//
//	Start(gems) → Installing/Using (zero or more) → Finished | Failed
//
// Start is always sent, even when no cookbook declares a gem; in that case
// the subsystem is not called and Finished follows immediately. Exactly one
// of Finished or Failed ends every run.
//
// # Interceptor
//
// Subsystems that also implement [UISubsystem] receive an [Interceptor]. It
// forwards every output line to the logger and turns lines such as
// "Installing rack 3.0.8" and "Using rake 13.1.0" into Installing and Using
// events. Whether a subsystem can take an interceptor is decided once, in
// [New], and exposed as [Installer.Mode]. Subsystems without the capability
// still install normally; the run simply produces no per-gem events.
//
// # Failures
//
// Any error from the subsystem is reported through [EventSink.Failed] and
// then returned from [Installer.Install] unchanged, so callers can use
// errors.Is and errors.As on the original value. Nothing is retried.
//
// # Example
//
//	c, _ := cookbook.LoadDir("cookbooks")
//	sub, _ := bundler.Detect(ctx, bundler.Options{})
//	in, _ := geminstall.New(c, sink, sub, geminstall.Options{
//	    SourceURL: "https://rubygems.org",
//	    Logger:    logger,
//	})
//	if err := in.Install(ctx); err != nil {
//	    // already reported to sink.Failed
//	}
package geminstall
