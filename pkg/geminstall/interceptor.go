package geminstall

import (
	"regexp"

	"github.com/charmbracelet/log"
)

// UI is the output callback surface an install subsystem writes to.
// Each method receives one human-readable message.
type UI interface {
	Confirm(msg string)
	Error(msg string)
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
}

// LineKind classifies a line of subsystem output.
type LineKind int

const (
	LineOther      LineKind = iota // anything without a gem event
	LineInstalling                 // "Installing <name> <version>"
	LineUsing                      // "Using <name> <version>"
)

func (k LineKind) String() string {
	switch k {
	case LineInstalling:
		return "installing"
	case LineUsing:
		return "using"
	default:
		return "other"
	}
}

var (
	installingPattern = regexp.MustCompile(`Installing\s+(\S+)\s+(\S+)`)
	usingPattern      = regexp.MustCompile(`Using\s+(\S+)\s+(\S+)`)
)

// ClassifyLine reports whether line announces a gem being installed or
// reused, and if so which gem and version. The match is unanchored, so
// prefixes such as log decorations do not prevent a match. A line matching
// both patterns is classified as installing.
func ClassifyLine(line string) (kind LineKind, name, version string) {
	if name, version, ok := matchGem(installingPattern, line); ok {
		return LineInstalling, name, version
	}
	if name, version, ok := matchGem(usingPattern, line); ok {
		return LineUsing, name, version
	}
	return LineOther, "", ""
}

func matchGem(re *regexp.Regexp, line string) (name, version string, ok bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Interceptor adapts subsystem output to structured events.
//
// Every message is logged at the matching level. Confirm messages are
// matched only against the Installing pattern and produce
// [EventSink.Installing]; Info messages are matched only against the Using
// pattern and produce [EventSink.Using]. An Interceptor
// holds no state besides its sink and logger.
type Interceptor struct {
	sink   EventSink
	logger *log.Logger
}

// NewInterceptor binds an interceptor to sink. A nil sink discards events
// and a nil logger falls back to log.Default().
func NewInterceptor(sink EventSink, logger *log.Logger) *Interceptor {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Interceptor{sink: sink, logger: logger}
}

// Confirm handles confirmation output, e.g. "Installing rack 3.0.8".
func (i *Interceptor) Confirm(msg string) {
	if name, version, ok := matchGem(installingPattern, msg); ok {
		i.sink.Installing(name, version)
	}
	i.logger.Info(msg)
}

// Error handles error output.
func (i *Interceptor) Error(msg string) {
	i.logger.Error(msg)
}

// Debug handles debug output.
func (i *Interceptor) Debug(msg string) {
	i.logger.Debug(msg)
}

// Info handles informational output, e.g. "Using rake 13.1.0".
func (i *Interceptor) Info(msg string) {
	if name, version, ok := matchGem(usingPattern, msg); ok {
		i.sink.Using(name, version)
	}
	i.logger.Info(msg)
}

// Warn handles warning output.
func (i *Interceptor) Warn(msg string) {
	i.logger.Warn(msg)
}

var _ UI = (*Interceptor)(nil)
