// Package observability lets cookgems report install runs and the Ruby
// processes they spawn without depending on a metrics backend.
//
// Hooks are process-wide and registered once by the binary; libraries only
// call them:
//
//	observability.Install().OnInstallStart(ctx, len(gems), mode)
//	...
//	observability.Install().OnInstallComplete(ctx, len(gems), mode, took, err)
//
// The defaults do nothing. [Logged] reports every event to a logger at
// debug level.
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// InstallHooks receives events from gem install runs.
type InstallHooks interface {
	// OnInstallStart records the start of a run with the aggregated gem count
	// and the dispatch mode ("with-interceptor" or "without-interceptor").
	OnInstallStart(ctx context.Context, gemCount int, mode string)

	// OnInstallComplete records the end of a run. err is nil on success.
	OnInstallComplete(ctx context.Context, gemCount int, mode string, duration time.Duration, err error)
}

// CommandHooks receives events about external processes (ruby, bundler).
type CommandHooks interface {
	// OnCommandStart records a process launch.
	OnCommandStart(ctx context.Context, name string, args []string)

	// OnCommandComplete records a process exit. exitCode is -1 when the
	// process could not be started or was killed.
	OnCommandComplete(ctx context.Context, name string, exitCode int, duration time.Duration, err error)
}

// NoopInstallHooks is a no-op implementation of InstallHooks.
type NoopInstallHooks struct{}

func (NoopInstallHooks) OnInstallStart(context.Context, int, string) {}
func (NoopInstallHooks) OnInstallComplete(context.Context, int, string, time.Duration, error) {
}

// NoopCommandHooks is a no-op implementation of CommandHooks.
type NoopCommandHooks struct{}

func (NoopCommandHooks) OnCommandStart(context.Context, string, []string)                     {}
func (NoopCommandHooks) OnCommandComplete(context.Context, string, int, time.Duration, error) {}

var (
	installHooks InstallHooks = NoopInstallHooks{}
	commandHooks CommandHooks = NoopCommandHooks{}
	hooksMu      sync.RWMutex
)

// SetInstallHooks replaces the install hooks. nil is ignored.
func SetInstallHooks(h InstallHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		installHooks = h
	}
}

// SetCommandHooks replaces the command hooks. nil is ignored.
func SetCommandHooks(h CommandHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		commandHooks = h
	}
}

// Install returns the registered install hooks.
func Install() InstallHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return installHooks
}

// Command returns the registered command hooks.
func Command() CommandHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return commandHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	installHooks = NoopInstallHooks{}
	commandHooks = NoopCommandHooks{}
}

// Logged implements both hook sets by logging at debug level.
type Logged struct {
	Logger *log.Logger
}

func (l Logged) OnInstallStart(ctx context.Context, gemCount int, mode string) {
	l.Logger.Debug("install started", "gems", gemCount, "mode", mode)
}

func (l Logged) OnInstallComplete(ctx context.Context, gemCount int, mode string, duration time.Duration, err error) {
	if err != nil {
		l.Logger.Debug("install failed", "gems", gemCount, "mode", mode, "took", duration, "err", err)
		return
	}
	l.Logger.Debug("install finished", "gems", gemCount, "mode", mode, "took", duration)
}

func (l Logged) OnCommandStart(ctx context.Context, name string, args []string) {
	l.Logger.Debug("exec", "cmd", name, "args", args)
}

func (l Logged) OnCommandComplete(ctx context.Context, name string, exitCode int, duration time.Duration, err error) {
	l.Logger.Debug("exited", "cmd", name, "code", exitCode, "took", duration)
}

var (
	_ InstallHooks = Logged{}
	_ CommandHooks = Logged{}
)
