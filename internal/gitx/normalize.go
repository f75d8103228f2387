// SPDX-License-Identifier: MIT
package gitx

import (
	"net/url"
	"path"
	"strings"
)

// NormalizeURL converts a git remote URL into a canonical repo_id.
//
// Rules:
//   - Strip protocol (https://, git://, ssh://) and user (git@)
//   - Convert git@host:path to host/path
//   - Lowercase the host portion
//   - Strip trailing ".git"
//   - Strip trailing slashes
//
// Examples:
//
//	git@github.com:Org/Repo.git  → github.com/Org/Repo
//	https://github.com/Org/Repo.git → github.com/Org/Repo
func NormalizeURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	var host, p string
	if i := strings.Index(rawURL, "@"); i >= 0 && !strings.Contains(rawURL[:i], "://") {
		rest := rawURL[i+1:]
		if colonIdx := strings.Index(rest, ":"); colonIdx >= 0 {
			host = rest[:colonIdx]
			p = rest[colonIdx+1:]
		}
	} else {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return rawURL
		}
		host = parsed.Hostname()
		p = strings.TrimPrefix(parsed.Path, "/")
	}

	host = strings.ToLower(host)
	p = strings.TrimRight(p, "/")
	p = strings.TrimSuffix(p, ".git")

	if host == "" {
		return p
	}
	return host + "/" + p
}

// RepoName returns the last path segment of a remote URL without ".git".
// It is used as the project folder name when cloning.
func RepoName(rawURL string) string {
	id := NormalizeURL(strings.TrimSpace(rawURL))
	if id == "" {
		return ""
	}
	name := path.Base(id)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
