package bundler

import (
	"strings"
	"testing"

	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/geminstall"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line      string
		wantLevel string
		wantMsg   string
	}{
		{"confirm\tInstalling rake 13.1.0", LevelConfirm, "Installing rake 13.1.0"},
		{"info\tUsing rake 13.1.0", LevelInfo, "Using rake 13.1.0"},
		{"warn\t", LevelWarn, ""},
		{"error\tboom\twith tab", LevelError, "boom\twith tab"},
		{"plain output", LevelInfo, "plain output"},
		{"bogus\tmessage", LevelInfo, "bogus\tmessage"},
	}
	for _, tt := range tests {
		level, msg := ParseLine(tt.line)
		if level != tt.wantLevel || msg != tt.wantMsg {
			t.Errorf("ParseLine(%q) = (%q, %q), want (%q, %q)", tt.line, level, msg, tt.wantLevel, tt.wantMsg)
		}
	}
}

func TestRelay(t *testing.T) {
	input := "debug\tresolving\r\nconfirm\tInstalling a 1.0\ninfo\tUsing b 2.0\nerror\tbad\nwarn\tcareful\nuntagged"
	ui := &recordingUI{}
	if err := Relay(strings.NewReader(input), ui); err != nil {
		t.Fatalf("Relay() error: %v", err)
	}
	want := []string{
		"debug:resolving",
		"confirm:Installing a 1.0",
		"info:Using b 2.0",
		"error:bad",
		"warn:careful",
		"info:untagged",
	}
	if strings.Join(ui.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %q, want %q", ui.calls, want)
	}
}

func TestRelayFeedsInterceptor(t *testing.T) {
	sink := &eventLog{}
	ic := geminstall.NewInterceptor(sink, nil)
	input := "confirm\tInstalling a 1.0\ninfo\tUsing b 2.0\ninfo\tBundle complete!\n"
	if err := Relay(strings.NewReader(input), ic); err != nil {
		t.Fatal(err)
	}
	want := "installing a 1.0|using b 2.0"
	if got := strings.Join(sink.events, "|"); got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
}

type eventLog struct {
	events []string
}

func (e *eventLog) Start([]cookbook.GemRequirement) {}
func (e *eventLog) Installing(name, version string) {
	e.events = append(e.events, "installing "+name+" "+version)
}
func (e *eventLog) Using(name, version string) {
	e.events = append(e.events, "using "+name+" "+version)
}
func (e *eventLog) Finished()    {}
func (e *eventLog) Failed(error) {}

func TestTailBuffer(t *testing.T) {
	tb := newTailBuffer(16)
	_, _ = tb.Write([]byte("first line\n"))
	_, _ = tb.Write([]byte("second\n"))
	if got := tb.Last(); got != "second" {
		t.Errorf("Last() = %q, want %q", got, "second")
	}
	if got := strings.Join(tb.Lines(), "|"); got != "rst line|second" {
		t.Errorf("Lines() = %q", got)
	}

	n, _ := tb.Write([]byte(strings.Repeat("x", 40) + "\nend\n"))
	if n != 45 {
		t.Errorf("Write() n = %d, want 45", n)
	}
	if got := tb.Last(); got != "end" {
		t.Errorf("Last() = %q, want %q", got, "end")
	}

	if got := newTailBuffer(8).Last(); got != "" {
		t.Errorf("empty Last() = %q", got)
	}
}
