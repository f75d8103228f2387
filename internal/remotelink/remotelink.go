// SPDX-License-Identifier: MIT
// Package remotelink reads and writes the remote a project is linked to.
// The link lives in the project root's own git config as remote.origin.url
// and is never copied into application storage.
package remotelink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitconfig "github.com/go-git/go-git/v5/config"

	"github.com/skaphos/branchkeeper/internal/credential"
	"github.com/skaphos/branchkeeper/internal/gitx"
)

// RemoteName is the remote every project and version checkout uses.
const RemoteName = "origin"

// ConfigPath returns the git config file of a repository directory.
func ConfigPath(repoPath string) string {
	return filepath.Join(repoPath, ".git", "config")
}

// Read returns the credential-free origin URL of projectPath, or "" when the
// project has no repository or no origin.
func Read(projectPath string) (string, error) {
	cfg, err := load(ConfigPath(projectPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	remote, ok := cfg.Remotes[RemoteName]
	if !ok || len(remote.URLs) == 0 {
		return "", nil
	}
	return credential.Strip(remote.URLs[0]), nil
}

// HasEmbeddedCredentials reports whether any remote URL in the git config at
// configPath carries userinfo. A missing file has none.
func HasEmbeddedCredentials(configPath string) (bool, error) {
	cfg, err := load(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	for _, remote := range cfg.Remotes {
		for _, u := range remote.URLs {
			if credential.HasUserinfo(u) {
				return true, nil
			}
		}
	}
	return false, nil
}

func load(path string) (*gitconfig.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := gitconfig.NewConfig()
	if err := cfg.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Store mutates project links through git.
type Store struct {
	Runner gitx.Runner
	// RootBranch is the initial branch of a newly initialized project root.
	RootBranch string
}

// Set links projectPath to rawURL. The project root is initialized when it
// has no repository yet. Credentials in rawURL are stripped before saving.
func (s *Store) Set(ctx context.Context, projectPath, rawURL string) (string, error) {
	if err := credential.Validate(rawURL); err != nil {
		return "", err
	}
	clean := credential.Strip(rawURL)
	if info, err := os.Stat(projectPath); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", gitx.ErrWorkdirMissing, projectPath)
	}
	if !gitx.HasRepo(projectPath) {
		if err := gitx.Init(ctx, s.Runner, projectPath, s.RootBranch); err != nil {
			return "", fmt.Errorf("init project root: %w", err)
		}
	}
	if err := gitx.EnsureRemote(ctx, s.Runner, projectPath, RemoteName, clean); err != nil {
		return "", fmt.Errorf("set %s: %w", RemoteName, err)
	}
	return clean, nil
}

// Clear unlinks projectPath. Unlinking a project without a link is a no-op.
func (s *Store) Clear(ctx context.Context, projectPath string) error {
	current, err := Read(projectPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(current) == "" {
		return nil
	}
	if err := gitx.RemoveRemote(ctx, s.Runner, projectPath, RemoteName); err != nil {
		return fmt.Errorf("remove %s: %w", RemoteName, err)
	}
	return nil
}
