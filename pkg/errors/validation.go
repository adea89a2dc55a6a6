package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// gemNameRegex matches names accepted by RubyGems.org.
var gemNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateGemName validates a gem name before it is written into an install
// manifest.
//
// The validation rules are conservative:
//   - No empty names
//   - Maximum length of 256 characters
//   - Letters, digits, '.', '_' and '-' only, starting with a letter or digit
func ValidateGemName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidGem, "gem name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidGem, "gem name too long (max 256 characters)")
	}
	if !gemNameRegex.MatchString(name) {
		return New(ErrCodeInvalidGem, "invalid gem name: %q", name)
	}
	return nil
}

// ValidateConstraint validates a single version constraint such as "~> 1.2"
// or ">= 2.0". It only rejects strings that cannot be a constraint at all;
// the install subsystem owns the real requirement grammar.
func ValidateConstraint(c string) error {
	if strings.TrimSpace(c) == "" {
		return New(ErrCodeInvalidGem, "version constraint cannot be empty")
	}
	for _, r := range c {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGem, "version constraint contains invalid control characters")
		}
	}
	return nil
}

// ValidateCookbookName validates a cookbook name.
func ValidateCookbookName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidCookbook, "cookbook name cannot be empty")
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidCookbook, "cookbook name contains invalid characters: %q", name)
		}
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidCookbook, "cookbook name cannot contain path components: %q", name)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must have a host")
	}
	return nil
}
