package bundler

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/geminstall"
	"github.com/matzehuels/cookgems/pkg/observability"
	"github.com/matzehuels/cookgems/pkg/rubygems"
)

const (
	defaultRuby = "ruby"
	stderrTail  = 64 * 1024
)

var (
	// MinInlineVersion is the first Bundler release with bundler/inline.
	MinInlineVersion = semver.MustParse("1.10.0")
	// MinUIVersion is the first Bundler release whose inline gemfile accepts ui:.
	MinUIVersion = semver.MustParse("1.12.0")
)

// Options configures how Ruby is launched.
type Options struct {
	Ruby    string      // Ruby executable (default: "ruby" on PATH)
	GemHome string      // GEM_HOME for the install (default: inherited)
	Env     []string    // Extra environment entries (KEY=value)
	Stdout  io.Writer   // Legacy output (default: os.Stdout)
	Stderr  io.Writer   // Legacy error output (default: os.Stderr)
	Logger  *log.Logger // Debug logging (default: log.Default())
}

func (o Options) withDefaults() Options {
	if o.Ruby == "" {
		o.Ruby = defaultRuby
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

func (o Options) environ() []string {
	env := os.Environ()
	if o.GemHome != "" {
		env = append(env, "GEM_HOME="+o.GemHome)
	}
	return append(env, o.Env...)
}

// Info describes the Ruby runtime found by Probe.
type Info struct {
	Ruby           string          // Executable that was probed
	RubyVersion    string          // RUBY_VERSION
	BundlerVersion *semver.Version // Bundler::VERSION, normalized
	BundlerRaw     string          // Bundler::VERSION as reported
}

// SupportsInline reports whether Bundler has bundler/inline.
func (i *Info) SupportsInline() bool {
	return !i.BundlerVersion.LessThan(MinInlineVersion)
}

// SupportsUI reports whether inline gemfiles accept an output UI.
func (i *Info) SupportsUI() bool {
	return !i.BundlerVersion.LessThan(MinUIVersion)
}

// Probe runs Ruby once to read its version and Bundler's.
func Probe(ctx context.Context, opts Options) (*Info, error) {
	opts = opts.withDefaults()

	var stdout strings.Builder
	stderr := newTailBuffer(stderrTail)
	cmd := exec.CommandContext(ctx, opts.Ruby, "-e", probeScript)
	cmd.Env = opts.environ()
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := runCommand(ctx, cmd); err != nil {
		return nil, commandError(opts.Ruby, err, stderr, "probe bundler")
	}

	lines := strings.Fields(stdout.String())
	if len(lines) < 2 {
		return nil, errors.New(errors.ErrCodeUnsupportedBundler, "unexpected probe output %q", stdout.String())
	}
	v, err := rubygems.ParseVersion(lines[1])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupportedBundler, err, "bundler version %q", lines[1])
	}
	return &Info{
		Ruby:           opts.Ruby,
		RubyVersion:    lines[0],
		BundlerVersion: v,
		BundlerRaw:     lines[1],
	}, nil
}

// Detect probes the runtime and returns the subsystem matching the installed
// Bundler: a *Bundler when it supports an output UI, a *Legacy otherwise.
func Detect(ctx context.Context, opts Options) (geminstall.Subsystem, *Info, error) {
	info, err := Probe(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	opts.Logger = opts.withDefaults().Logger
	opts.Logger.Debug("detected bundler", "ruby", info.RubyVersion, "bundler", info.BundlerRaw)

	switch {
	case info.SupportsUI():
		return New(opts), info, nil
	case info.SupportsInline():
		return NewLegacy(opts), info, nil
	default:
		return nil, info, errors.New(errors.ErrCodeUnsupportedBundler,
			"bundler %s is too old (need >= %s)", info.BundlerRaw, MinInlineVersion)
	}
}

// Bundler installs manifests through bundler/inline and reports output
// through a UI. It implements geminstall.UISubsystem.
type Bundler struct {
	opts Options
}

// New returns a Bundler subsystem. It does not check the Bundler version;
// use Detect for that.
func New(opts Options) *Bundler {
	return &Bundler{opts: opts.withDefaults()}
}

// Install installs m, sending output to the configured writers.
func (b *Bundler) Install(ctx context.Context, m *geminstall.Manifest) error {
	return runPlain(ctx, b.opts, Script(m, false))
}

// InstallWithUI installs m and reports every output line through ui.
func (b *Bundler) InstallWithUI(ctx context.Context, m *geminstall.Manifest, ui geminstall.UI) error {
	opts := b.opts
	stderr := newTailBuffer(stderrTail)

	cmd := exec.CommandContext(ctx, opts.Ruby, "-")
	cmd.Env = opts.environ()
	cmd.Stdin = strings.NewReader(Script(m, true))
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "stdout pipe")
	}

	start := time.Now()
	observability.Command().OnCommandStart(ctx, opts.Ruby, cmd.Args[1:])
	if err := cmd.Start(); err != nil {
		observability.Command().OnCommandComplete(ctx, opts.Ruby, -1, time.Since(start), err)
		return commandError(opts.Ruby, err, stderr, "bundle install")
	}

	relayErr := Relay(stdout, ui)
	if relayErr != nil {
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()
	observability.Command().OnCommandComplete(ctx, opts.Ruby, exitCode(cmd), time.Since(start), waitErr)

	for _, line := range stderr.Lines() {
		if waitErr != nil {
			ui.Error(line)
		} else {
			ui.Warn(line)
		}
	}

	if waitErr != nil {
		return commandError(opts.Ruby, waitErr, stderr, "bundle install")
	}
	if relayErr != nil {
		return errors.Wrap(errors.ErrCodeInstallFailed, relayErr, "read bundler output")
	}
	return nil
}

// Legacy installs manifests on Bundler versions whose inline gemfile does
// not accept a UI. Output goes straight to the configured writers.
type Legacy struct {
	opts Options
}

// NewLegacy returns a Legacy subsystem.
func NewLegacy(opts Options) *Legacy {
	return &Legacy{opts: opts.withDefaults()}
}

// Install installs m.
func (l *Legacy) Install(ctx context.Context, m *geminstall.Manifest) error {
	return runPlain(ctx, l.opts, Script(m, false))
}

func runPlain(ctx context.Context, opts Options, script string) error {
	stderr := newTailBuffer(stderrTail)

	cmd := exec.CommandContext(ctx, opts.Ruby, "-")
	cmd.Env = opts.environ()
	cmd.Stdin = strings.NewReader(script)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = io.MultiWriter(opts.Stderr, stderr)

	if err := runCommand(ctx, cmd); err != nil {
		return commandError(opts.Ruby, err, stderr, "bundle install")
	}
	return nil
}

// runCommand runs cmd to completion, reporting to the command hooks.
func runCommand(ctx context.Context, cmd *exec.Cmd) error {
	start := time.Now()
	observability.Command().OnCommandStart(ctx, cmd.Path, cmd.Args[1:])
	err := cmd.Run()
	observability.Command().OnCommandComplete(ctx, cmd.Path, exitCode(cmd), time.Since(start), err)
	return err
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

// commandError classifies a process failure.
func commandError(ruby string, err error, stderr *tailBuffer, what string) error {
	if stderrors.Is(err, exec.ErrNotFound) || stderrors.Is(err, os.ErrNotExist) {
		return errors.Wrap(errors.ErrCodeRuntimeNotFound, err, "ruby executable %q", ruby)
	}
	if last := stderr.Last(); last != "" {
		return errors.Wrap(errors.ErrCodeInstallFailed, err, "%s: %s", what, last)
	}
	return errors.Wrap(errors.ErrCodeInstallFailed, err, "%s", what)
}

var (
	_ geminstall.UISubsystem = (*Bundler)(nil)
	_ geminstall.Subsystem   = (*Legacy)(nil)
)
