// Package events provides [geminstall.EventSink] implementations.
//
// Sinks compose with [Multi]: a CLI install typically fans out to a console
// or TUI sink, a [Recorder] that persists the run, and optionally a
// [RedisPublisher] that broadcasts progress to other processes.
package events

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/geminstall"
)

// Type names an install lifecycle event.
type Type string

const (
	TypeStart      Type = "start"
	TypeInstalling Type = "installing"
	TypeUsing      Type = "using"
	TypeFinished   Type = "finished"
	TypeFailed     Type = "failed"
)

// Event is the serialized form of a sink call.
type Event struct {
	Type    Type                      `json:"type"`
	RunID   string                    `json:"run_id,omitempty"`
	Gem     string                    `json:"gem,omitempty"`
	Version string                    `json:"version,omitempty"`
	Gems    []cookbook.GemRequirement `json:"gems,omitempty"`
	Error   string                    `json:"error,omitempty"`
	Time    time.Time                 `json:"time"`
}

// Terminal reports whether e ends a run.
func (e Event) Terminal() bool {
	return e.Type == TypeFinished || e.Type == TypeFailed
}

// Multi forwards every event to each sink in order.
type Multi []geminstall.EventSink

// NewMulti drops nil sinks.
func NewMulti(sinks ...geminstall.EventSink) Multi {
	m := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m Multi) Start(gems []cookbook.GemRequirement) {
	for _, s := range m {
		s.Start(gems)
	}
}

func (m Multi) Installing(name, version string) {
	for _, s := range m {
		s.Installing(name, version)
	}
}

func (m Multi) Using(name, version string) {
	for _, s := range m {
		s.Using(name, version)
	}
}

func (m Multi) Finished() {
	for _, s := range m {
		s.Finished()
	}
}

func (m Multi) Failed(err error) {
	for _, s := range m {
		s.Failed(err)
	}
}

// LogSink writes each event as a structured log line.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

func (s LogSink) Start(gems []cookbook.GemRequirement) {
	s.logger().Info("install started", "gems", len(gems))
}

func (s LogSink) Installing(name, version string) {
	s.logger().Info("installing gem", "gem", name, "version", version)
}

func (s LogSink) Using(name, version string) {
	s.logger().Debug("using gem", "gem", name, "version", version)
}

func (s LogSink) Finished() {
	s.logger().Info("install finished")
}

func (s LogSink) Failed(err error) {
	s.logger().Error("install failed", "err", err)
}

var (
	_ geminstall.EventSink = Multi(nil)
	_ geminstall.EventSink = LogSink{}
)
