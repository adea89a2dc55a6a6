package errors

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "new",
			err:  New(ErrCodeInvalidCookbook, "cookbook %s has no name", "vault"),
			want: "INVALID_COOKBOOK: cookbook vault has no name",
		},
		{
			name: "wrapped",
			err:  Wrap(ErrCodeInstallFailed, exec.ErrNotFound, "bundle install exited"),
			want: "INSTALL_FAILED: bundle install exited: executable file not found in $PATH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("exit status 5")
	err := Wrap(ErrCodeInstallFailed, cause, "bundle install exited")

	if errors.Unwrap(err) != cause || !errors.Is(err, cause) {
		t.Error("cause not reachable through the standard errors package")
	}
	var coded *Error
	if !errors.As(fmt.Errorf("install: %w", err), &coded) || coded.Code != ErrCodeInstallFailed {
		t.Errorf("errors.As through fmt wrapping = %v", coded)
	}
}

func TestIs(t *testing.T) {
	inner := New(ErrCodeRuntimeNotFound, "ruby not found")
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching", inner, ErrCodeRuntimeNotFound, true},
		{"other code", inner, ErrCodeNetwork, false},
		{"outer of chain", Wrap(ErrCodeInstallFailed, inner, "install"), ErrCodeInstallFailed, true},
		{"inner of chain", Wrap(ErrCodeInstallFailed, inner, "install"), ErrCodeRuntimeNotFound, true},
		{"through fmt", fmt.Errorf("detect: %w", inner), ErrCodeRuntimeNotFound, true},
		{"plain", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode Code
		wantMsg  string
	}{
		{"coded", New(ErrCodeInvalidGem, "invalid gem name: %q", "a b"), ErrCodeInvalidGem, `invalid gem name: "a b"`},
		{"outermost wins", Wrap(ErrCodeInstallFailed, New(ErrCodeNetwork, "fetch"), "bundle failed"), ErrCodeInstallFailed, "bundle failed"},
		{"plain", errors.New("plain error"), "", "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.wantCode {
				t.Errorf("GetCode() = %q, want %q", got, tt.wantCode)
			}
			if got := UserMessage(tt.err); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
}

func TestCodeInvalid(t *testing.T) {
	for code, want := range map[Code]bool{
		ErrCodeInvalidMetadata:    true,
		ErrCodeInvalidConfig:      true,
		ErrCodeDuplicateCookbook:  true,
		ErrCodeRunNotFound:        false,
		ErrCodeUnsupportedBundler: false,
	} {
		if got := code.Invalid(); got != want {
			t.Errorf("%s.Invalid() = %v, want %v", code, got, want)
		}
	}
}
