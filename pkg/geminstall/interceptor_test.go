package geminstall

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line        string
		wantKind    LineKind
		wantName    string
		wantVersion string
	}{
		{"Installing foo 1.0.1", LineInstalling, "foo", "1.0.1"},
		{"Installing time_ago_in_words 0.1.1", LineInstalling, "time_ago_in_words", "0.1.1"},
		{"Installing  nokogiri\t1.15.4 (x86_64-linux)", LineInstalling, "nokogiri", "1.15.4"},
		{"Using bar 2.3.0", LineUsing, "bar", "2.3.0"},
		{"Using bundler 2.4.10", LineUsing, "bundler", "2.4.10"},
		{"  Using rake 13.1.0", LineUsing, "rake", "13.1.0"},
		{"Using foo 0.9; Installing foo 1.0", LineInstalling, "foo", "1.0"},
		{"Resolving dependencies", LineOther, "", ""},
		{"Installing foo", LineOther, "", ""},
		{"Using", LineOther, "", ""},
		{"Bundle complete! 2 Gemfile dependencies, 3 gems now installed.", LineOther, "", ""},
		{"", LineOther, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			kind, name, version := ClassifyLine(tt.line)
			if kind != tt.wantKind || name != tt.wantName || version != tt.wantVersion {
				t.Errorf("ClassifyLine(%q) = (%v, %q, %q), want (%v, %q, %q)",
					tt.line, kind, name, version, tt.wantKind, tt.wantName, tt.wantVersion)
			}
		})
	}
}

func TestLineKind_String(t *testing.T) {
	for kind, want := range map[LineKind]string{LineOther: "other", LineInstalling: "installing", LineUsing: "using"} {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}

func TestInterceptor_Confirm(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{}
	i := NewInterceptor(sink, log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))

	i.Confirm("Installing foo 1.0.1")
	i.Confirm("Resolving dependencies")
	i.Confirm("Using bar 2.3.0") // reuse is only reported at info level
	i.Confirm("Using bar 2.3.0; Installing bar 2.4.0")

	if want := []string{"installing foo 1.0.1", "installing bar 2.4.0"}; !reflect.DeepEqual(sink.events, want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
	out := buf.String()
	for _, msg := range []string{"Installing foo 1.0.1", "Resolving dependencies", "Using bar 2.3.0"} {
		if !strings.Contains(out, msg) {
			t.Errorf("log output missing %q", msg)
		}
	}
	if got := strings.Count(out, "INFO"); got != 4 {
		t.Errorf("confirm lines logged at info %d times, want 4", got)
	}
}

func TestInterceptor_Info(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{}
	i := NewInterceptor(sink, log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))

	i.Info("Using bar 2.3.0")
	i.Info("Installing foo 1.0") // installation is only reported at confirm level
	i.Info("Fetching gem metadata from https://rubygems.org/")
	i.Info("Installing foo 1.0 skipped; Using foo 0.9")

	if want := []string{"using bar 2.3.0", "using foo 0.9"}; !reflect.DeepEqual(sink.events, want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
	if got := strings.Count(buf.String(), "INFO"); got != 4 {
		t.Errorf("info lines logged %d times, want 4", got)
	}
}

func TestInterceptor_LogLevels(t *testing.T) {
	tests := []struct {
		name  string
		call  func(*Interceptor, string)
		level string
	}{
		{"error", (*Interceptor).Error, "ERRO"},
		{"debug", (*Interceptor).Debug, "DEBU"},
		{"warn", (*Interceptor).Warn, "WARN"},
		{"info", (*Interceptor).Info, "INFO"},
		{"confirm", (*Interceptor).Confirm, "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := &recordingSink{}
			i := NewInterceptor(sink, log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))

			tt.call(i, "some message")

			if !strings.Contains(buf.String(), tt.level) || !strings.Contains(buf.String(), "some message") {
				t.Errorf("log output = %q, want %s line with message", buf.String(), tt.level)
			}
			if len(sink.events) != 0 {
				t.Errorf("events = %v, want none", sink.events)
			}
		})
	}
}

func TestInterceptor_NilSafe(t *testing.T) {
	var buf bytes.Buffer
	i := NewInterceptor(nil, log.New(&buf))
	i.Confirm("Installing foo 1.0")
	i.Info("Using foo 1.0")
	i.Error("")
	i.Warn("")

	NewInterceptor(nil, nil).Debug("uses the default logger")
}
