package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("loaded cookbooks") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("probing ruby") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("probing ruby") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("history disabled") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v (%q)", got, tt.want, buf.String())
			}
		})
	}
}

func TestTimed(t *testing.T) {
	var buf bytes.Buffer
	done := timed(newLogger(&buf, log.InfoLevel), "checked gem source")
	done("gems", 3)

	out := buf.String()
	for _, want := range []string{"checked gem source", "gems=3", "took="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should yield log.Default()")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), l)
	if loggerFromContext(ctx) != l {
		t.Error("loggerFromContext did not return the attached logger")
	}
}
