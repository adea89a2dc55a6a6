package geminstall

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/observability"
)

// DefaultSourceURL is the gem source used when Options.SourceURL is empty.
const DefaultSourceURL = "https://rubygems.org"

// Cookbooks is the read-only view of a cookbook collection the installer
// needs. *cookbook.Collection implements it.
type Cookbooks interface {
	All() iter.Seq2[string, *cookbook.Version]
}

// Subsystem installs a manifest. It returns a non-nil error on any failure.
type Subsystem interface {
	Install(ctx context.Context, m *Manifest) error
}

// UISubsystem is a Subsystem that can also report its output through a UI.
type UISubsystem interface {
	Subsystem
	InstallWithUI(ctx context.Context, m *Manifest, ui UI) error
}

// Mode is how the installer dispatches to its subsystem.
type Mode int

const (
	// ModeWithoutInterceptor calls Subsystem.Install; no per-gem events.
	ModeWithoutInterceptor Mode = iota
	// ModeWithInterceptor calls UISubsystem.InstallWithUI with an Interceptor.
	ModeWithInterceptor
)

func (m Mode) String() string {
	if m == ModeWithInterceptor {
		return "with-interceptor"
	}
	return "without-interceptor"
}

// ModeOf returns the mode New would choose for subsystem.
func ModeOf(subsystem Subsystem) Mode {
	if _, ok := subsystem.(UISubsystem); ok {
		return ModeWithInterceptor
	}
	return ModeWithoutInterceptor
}

// Options configures an Installer.
type Options struct {
	SourceURL string      // Gem source (default: DefaultSourceURL)
	Logger    *log.Logger // Receives subsystem output (default: log.Default())
}

// Installer aggregates cookbook gem requirements and installs them once per
// call to Install. It is not safe for concurrent use.
type Installer struct {
	cookbooks Cookbooks
	sink      EventSink
	subsystem Subsystem
	ui        UISubsystem // set only in ModeWithInterceptor
	mode      Mode
	source    string
	logger    *log.Logger
}

// New creates an Installer. The subsystem's capabilities are inspected here,
// once: subsystems implementing UISubsystem run in ModeWithInterceptor.
// A nil sink discards events.
func New(cookbooks Cookbooks, sink EventSink, subsystem Subsystem, opts Options) (*Installer, error) {
	if cookbooks == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cookbook collection is required")
	}
	if subsystem == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "install subsystem is required")
	}
	if sink == nil {
		sink = NopSink{}
	}
	if opts.SourceURL == "" {
		opts.SourceURL = DefaultSourceURL
	}
	if err := errors.ValidateURL(opts.SourceURL); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	in := &Installer{
		cookbooks: cookbooks,
		sink:      sink,
		subsystem: subsystem,
		source:    opts.SourceURL,
		logger:    opts.Logger,
	}
	if in.mode = ModeOf(subsystem); in.mode == ModeWithInterceptor {
		in.ui = subsystem.(UISubsystem)
	} else {
		in.logger.Warn("install subsystem does not accept an output interceptor; per-gem progress will not be reported")
	}
	return in, nil
}

// Mode reports how Install dispatches to the subsystem.
func (in *Installer) Mode() Mode { return in.mode }

// SourceURL returns the gem source used for manifests.
func (in *Installer) SourceURL() string { return in.source }

// Gems returns every gem requirement declared by the collection, in
// cookbook order and then declaration order. Duplicates are kept.
func (in *Installer) Gems() []cookbook.GemRequirement {
	return Aggregate(in.cookbooks)
}

// Aggregate flattens the gem requirements of cookbooks the way Install
// does. The result is never nil.
func Aggregate(cookbooks Cookbooks) []cookbook.GemRequirement {
	gems := []cookbook.GemRequirement{}
	for _, v := range cookbooks.All() {
		gems = append(gems, v.Gems()...)
	}
	return gems
}

// Manifest builds the manifest Install would pass to the subsystem.
func (in *Installer) Manifest() *Manifest {
	return &Manifest{Source: in.source, Gems: in.Gems()}
}

// Install runs one installation.
//
// The sink always receives Start and then exactly one of Finished or
// Failed. When no gems are declared the subsystem is not called. Any
// subsystem error is passed to Failed and returned unchanged.
func (in *Installer) Install(ctx context.Context) (err error) {
	m := in.Manifest()
	in.sink.Start(m.Gems)

	start := time.Now()
	observability.Install().OnInstallStart(ctx, len(m.Gems), in.mode.String())
	defer func() {
		r := recover()
		if r != nil {
			err = panicError(r)
		}
		observability.Install().OnInstallComplete(ctx, len(m.Gems), in.mode.String(), time.Since(start), err)
		if r != nil {
			panic(r)
		}
	}()

	if len(m.Gems) > 0 {
		if err = in.dispatch(ctx, m); err != nil {
			in.sink.Failed(err)
			return err
		}
	}

	in.sink.Finished()
	return nil
}

// dispatch calls the subsystem in the mode chosen by New. A panic inside the
// subsystem is reported as a failure and then re-raised.
func (in *Installer) dispatch(ctx context.Context, m *Manifest) error {
	defer func() {
		if r := recover(); r != nil {
			in.sink.Failed(panicError(r))
			panic(r)
		}
	}()

	in.logger.Debug("installing cookbook gems", "gems", len(m.Gems), "source", m.Source, "mode", in.mode)
	if in.mode == ModeWithInterceptor {
		return in.ui.InstallWithUI(ctx, m, NewInterceptor(in.sink, in.logger))
	}
	return in.subsystem.Install(ctx, m)
}

func panicError(r any) error {
	return fmt.Errorf("install subsystem panicked: %v", r)
}
