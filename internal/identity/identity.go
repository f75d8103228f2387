// SPDX-License-Identifier: MIT
// Package identity resolves the commit author from the access token.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v80/github"

	"github.com/skaphos/branchkeeper/internal/credential"
	"github.com/skaphos/branchkeeper/internal/model"
)

// NoReplyEmail is used when the account hides its email address.
const NoReplyEmail = "user@noreply.github.com"

// ErrNoIdentity is returned when the token owner cannot be determined.
var ErrNoIdentity = errors.New("cannot resolve author identity")

// Resolver maps a token to the author used for commits.
type Resolver interface {
	Resolve(ctx context.Context, token string) (model.Author, error)
}

// GitHubResolver looks up the authenticated user on GitHub.
type GitHubResolver struct {
	// BaseURL overrides the API endpoint, for GitHub Enterprise or tests.
	BaseURL string
	// HTTPClient is used for requests; nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// Resolve returns the token owner's login and public email.
func (g *GitHubResolver) Resolve(ctx context.Context, token string) (model.Author, error) {
	if strings.TrimSpace(token) == "" {
		return model.Author{}, credential.ErrMissingCredential
	}
	client := github.NewClient(g.HTTPClient).WithAuthToken(strings.TrimSpace(token))
	if g.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(g.BaseURL, "/") + "/")
		if err != nil {
			return model.Author{}, fmt.Errorf("github base url: %w", err)
		}
		client.BaseURL = base
	}
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return model.Author{}, fmt.Errorf("%w: %w", ErrNoIdentity, err)
	}
	login := user.GetLogin()
	if login == "" {
		return model.Author{}, fmt.Errorf("%w: empty login", ErrNoIdentity)
	}
	email := user.GetEmail()
	if email == "" {
		email = NoReplyEmail
	}
	return model.Author{Name: login, Email: email}, nil
}

// StaticResolver always returns the configured author.
type StaticResolver struct {
	Author model.Author
}

// Resolve returns the pinned author.
func (s StaticResolver) Resolve(context.Context, string) (model.Author, error) {
	if strings.TrimSpace(s.Author.Name) == "" {
		return model.Author{}, fmt.Errorf("%w: static author has no name", ErrNoIdentity)
	}
	author := s.Author
	if author.Email == "" {
		author.Email = NoReplyEmail
	}
	return author, nil
}
