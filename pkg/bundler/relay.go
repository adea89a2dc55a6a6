package bundler

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/matzehuels/cookgems/pkg/geminstall"
)

// Output levels of the line protocol.
const (
	LevelConfirm = "confirm"
	LevelError   = "error"
	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarn    = "warn"
)

const maxLineSize = 1 << 20

// ParseLine splits a protocol line into level and message. Lines without a
// known level tag are info.
func ParseLine(line string) (level, msg string) {
	if tag, rest, ok := strings.Cut(line, "\t"); ok {
		switch tag {
		case LevelConfirm, LevelError, LevelDebug, LevelInfo, LevelWarn:
			return tag, rest
		}
	}
	return LevelInfo, line
}

// Dispatch calls the UI method for level.
func Dispatch(ui geminstall.UI, level, msg string) {
	switch level {
	case LevelConfirm:
		ui.Confirm(msg)
	case LevelError:
		ui.Error(msg)
	case LevelDebug:
		ui.Debug(msg)
	case LevelWarn:
		ui.Warn(msg)
	default:
		ui.Info(msg)
	}
}

// Relay reads protocol lines from r until EOF and dispatches each one to ui
// in order.
func Relay(r io.Reader, ui geminstall.UI) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		level, msg := ParseLine(strings.TrimRight(scanner.Text(), "\r"))
		Dispatch(ui, level, msg)
	}
	return scanner.Err()
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) > t.max {
		p = p[len(p)-t.max:]
		t.buf.Reset()
	}
	if over := t.buf.Len() + len(p) - t.max; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

// Lines returns the buffered output split into non-empty lines.
func (t *tailBuffer) Lines() []string {
	var lines []string
	for _, l := range strings.Split(t.buf.String(), "\n") {
		if l = strings.TrimRight(l, "\r"); strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Last returns the last non-empty line, or "".
func (t *tailBuffer) Last() string {
	lines := t.Lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
