// SPDX-License-Identifier: MIT
// Package credential builds authenticated remote URLs from short-lived access
// tokens. Tokens are only ever embedded in URLs handed to a single command
// invocation; nothing in this package writes to disk.
package credential

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

// TokenUser is the synthetic username paired with the token password.
const TokenUser = "oauth2"

var (
	// ErrMissingCredential is returned when no access token is configured.
	ErrMissingCredential = errors.New("missing access token")
	// ErrInvalidRemoteURL is returned when a remote URL cannot be parsed.
	ErrInvalidRemoteURL = errors.New("invalid remote url")
)

// Inject returns rawURL with token embedded as the password of TokenUser.
// Local file:// remotes carry no credentials and are returned unchanged.
func Inject(rawURL, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredential
	}
	u, err := parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "file" {
		return u.String(), nil
	}
	u.User = url.UserPassword(TokenUser, token)
	return u.String(), nil
}

// Strip removes any userinfo from rawURL. Unparseable input is returned
// unchanged so callers can still surface it in messages.
func Strip(rawURL string) string {
	u, err := parse(rawURL)
	if err != nil {
		return strings.TrimSpace(rawURL)
	}
	u.User = nil
	return u.String()
}

// HasUserinfo reports whether rawURL carries embedded credentials.
func HasUserinfo(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return userinfoPattern.MatchString(rawURL)
	}
	return u.User != nil
}

// Validate checks that rawURL is a usable remote URL.
func Validate(rawURL string) error {
	_, err := parse(rawURL)
	return err
}

var userinfoPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^/@\s]+@`)

// Redact masks userinfo of every URL found in text.
func Redact(text string) string {
	return userinfoPattern.ReplaceAllString(text, "${1}***@")
}

func parse(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidRemoteURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRemoteURL, Redact(trimmed))
	}
	if u.Scheme == "" || (u.Host == "" && u.Scheme != "file") {
		return nil, fmt.Errorf("%w: %s (expected scheme://host/path)", ErrInvalidRemoteURL, Redact(trimmed))
	}
	return u, nil
}

// TokenSource supplies the current access token. Implementations are read on
// every call so a rotated token is picked up without restarting.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, mostly useful in tests.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrMissingCredential
	}
	return strings.TrimSpace(string(s)), nil
}

// EnvFileSource reads the token from an environment variable first and then
// from a file. Both are re-read on every call.
type EnvFileSource struct {
	EnvVar string
	Path   string
}

func (s EnvFileSource) Token(context.Context) (string, error) {
	if s.EnvVar != "" {
		if v := strings.TrimSpace(os.Getenv(s.EnvVar)); v != "" {
			return v, nil
		}
	}
	if strings.TrimSpace(s.Path) == "" {
		return "", ErrMissingCredential
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrMissingCredential
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}
