// SPDX-License-Identifier: MIT
package gitx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version returns the output of `git --version`.
func Version(ctx context.Context, r Runner) (string, error) {
	res, err := r.Run(ctx, "", "--version")
	if err != nil {
		return "", err
	}
	return res.Trimmed(), nil
}

// HasRepo reports whether dir holds its own repository metadata. It only
// inspects the filesystem, so a folder nested inside another repository is
// still reported as having no repository of its own.
func HasRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Init creates a repository in dir with branch as its initial branch.
func Init(ctx context.Context, r Runner, dir, branch string) error {
	args := []string{"init"}
	if branch != "" {
		args = append(args, "-b", branch)
	}
	_, err := r.Run(ctx, dir, args...)
	return err
}

// SetConfig writes a repository-local config value.
func SetConfig(ctx context.Context, r Runner, dir, key, value string) error {
	_, err := r.Run(ctx, dir, "config", key, value)
	return err
}

// SetIdentity configures the commit author for dir.
func SetIdentity(ctx context.Context, r Runner, dir, name, email string) error {
	if err := SetConfig(ctx, r, dir, "user.name", name); err != nil {
		return err
	}
	return SetConfig(ctx, r, dir, "user.email", email)
}

// RemoteURL returns the configured URL for the named remote.
func RemoteURL(ctx context.Context, r Runner, dir, name string) (string, error) {
	res, err := r.Run(ctx, dir, "remote", "get-url", name)
	if err != nil {
		return "", err
	}
	return res.Trimmed(), nil
}

// EnsureRemote adds the named remote, or repoints it when it already exists.
func EnsureRemote(ctx context.Context, r Runner, dir, name, url string) error {
	if _, err := RemoteURL(ctx, r, dir, name); err != nil {
		_, addErr := r.Run(ctx, dir, "remote", "add", name, url)
		return addErr
	}
	_, err := r.Run(ctx, dir, "remote", "set-url", name, url)
	return err
}

// RemoveRemote deletes the named remote.
func RemoveRemote(ctx context.Context, r Runner, dir, name string) error {
	_, err := r.Run(ctx, dir, "remote", "remove", name)
	return err
}

// FetchInto fetches every head from url into refs/remotes/<remote>/*.
// The URL is only passed on the command line, so an authenticated URL is
// never recorded in the repository config.
func FetchInto(ctx context.Context, r Runner, dir, url, remote string) error {
	refspec := fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remote)
	_, err := r.Run(ctx, dir, "-c", "fetch.recurseSubmodules=false", "fetch", "--prune", "--no-recurse-submodules", url, refspec)
	return err
}

// FetchBranchInto fetches a single head from url into refs/remotes/<remote>/<branch>.
func FetchBranchInto(ctx context.Context, r Runner, dir, url, remote, branch string) error {
	refspec := fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remote, branch)
	_, err := r.Run(ctx, dir, "-c", "fetch.recurseSubmodules=false", "fetch", "--no-recurse-submodules", url, refspec)
	return err
}

// StatusPorcelain returns the raw `git status --porcelain` output.
func StatusPorcelain(ctx context.Context, r Runner, dir string) (string, error) {
	res, err := r.Run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("git status: %w", err)
	}
	return res.Stdout, nil
}

// IsDirty reports whether the working tree has any change, untracked files included.
func IsDirty(ctx context.Context, r Runner, dir string) (bool, error) {
	out, err := StatusPorcelain(ctx, r, dir)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// LsRemoteHeads lists branch names on url, optionally filtered by patterns.
func LsRemoteHeads(ctx context.Context, r Runner, dir, url string, patterns ...string) ([]string, error) {
	args := append([]string{"ls-remote", "--heads", url}, patterns...)
	res, err := r.Run(ctx, dir, args...)
	if err != nil {
		return nil, err
	}
	return ParseLsRemoteHeads(res.Stdout), nil
}

// RemoteBranchExists reports whether url has a head named exactly branch.
func RemoteBranchExists(ctx context.Context, r Runner, dir, url, branch string) (bool, error) {
	heads, err := LsRemoteHeads(ctx, r, dir, url, branch)
	if err != nil {
		return false, err
	}
	for _, h := range heads {
		if h == branch {
			return true, nil
		}
	}
	return false, nil
}

// HasHead reports whether the repository has at least one commit.
func HasHead(ctx context.Context, r Runner, dir string) bool {
	_, err := r.Run(ctx, dir, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// AheadBehind returns the left/right commit counts of left...right.
func AheadBehind(ctx context.Context, r Runner, dir, left, right string) (int, int, error) {
	res, err := r.Run(ctx, dir, "rev-list", "--left-right", "--count", left+"..."+right)
	if err != nil {
		return 0, 0, err
	}
	ahead, behind := ParseRevListCount(res.Stdout)
	return ahead, behind, nil
}

// CommitCount returns the number of commits reachable from HEAD, 0 when
// the repository has no commit yet.
func CommitCount(ctx context.Context, r Runner, dir string) (int, error) {
	if !HasHead(ctx, r, dir) {
		return 0, nil
	}
	return RevCount(ctx, r, dir, "HEAD")
}

// RevCount returns the number of commits reachable from ref.
func RevCount(ctx context.Context, r Runner, dir, ref string) (int, error) {
	res, err := r.Run(ctx, dir, "rev-list", "--count", ref)
	if err != nil {
		return 0, err
	}
	return ParseCount(res.Stdout), nil
}

// ResetHard resets the index and tracked files to HEAD.
func ResetHard(ctx context.Context, r Runner, dir string) error {
	_, err := r.Run(ctx, dir, "reset", "--hard", "HEAD")
	return err
}

// StashPush stashes tracked and untracked changes. It reports whether a
// stash entry was actually created.
func StashPush(ctx context.Context, r Runner, dir, message string) (bool, error) {
	args := []string{"stash", "push", "-u"}
	if message != "" {
		args = append(args, "-m", message)
	}
	res, err := r.Run(ctx, dir, args...)
	if err != nil {
		return false, err
	}
	if strings.Contains(res.Stdout+res.Stderr, "No local changes to save") {
		return false, nil
	}
	return true, nil
}

// StashPop restores the most recent stash entry.
func StashPop(ctx context.Context, r Runner, dir string) error {
	_, err := r.Run(ctx, dir, "stash", "pop")
	return err
}

// TrackingRef returns the remote-tracking ref of branch under remote.
func TrackingRef(remote, branch string) string {
	return "refs/remotes/" + remote + "/" + branch
}

// Rebase replays local commits onto upstream, an already fetched ref.
// Fetching separately keeps remote URLs out of reflog messages.
func Rebase(ctx context.Context, r Runner, dir, upstream string) error {
	_, err := r.Run(ctx, dir, "rebase", upstream)
	return err
}

// AdoptHistory points a branch without commits at ref and resets the index
// to it. The working tree is left alone, so local files become changes on
// top of ref.
func AdoptHistory(ctx context.Context, r Runner, dir, ref string) error {
	if _, err := r.Run(ctx, dir, "update-ref", "HEAD", ref); err != nil {
		return err
	}
	_, err := r.Run(ctx, dir, "reset", "-q")
	return err
}

// RebaseAbort abandons an in-progress rebase. It is a no-op error when no
// rebase is running.
func RebaseAbort(ctx context.Context, r Runner, dir string) error {
	_, err := r.Run(ctx, dir, "rebase", "--abort")
	return err
}

// RebaseInProgress reports whether dir has an unfinished rebase.
func RebaseInProgress(dir string) bool {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(dir, ".git", name)); err == nil {
			return true
		}
	}
	return false
}

// AddAll stages every change in the working tree.
func AddAll(ctx context.Context, r Runner, dir string) error {
	_, err := r.Run(ctx, dir, "add", "-A")
	return err
}

// Commit records staged changes with message.
func Commit(ctx context.Context, r Runner, dir, message string) error {
	_, err := r.Run(ctx, dir, "commit", "-m", message)
	return err
}

// PushHead pushes HEAD to refs/heads/<branch> on url.
func PushHead(ctx context.Context, r Runner, dir, url, branch string, force bool) (Result, error) {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, url, "HEAD:refs/heads/"+branch)
	return r.Run(ctx, dir, args...)
}

// DeleteRemoteBranch removes branch from url.
func DeleteRemoteBranch(ctx context.Context, r Runner, dir, url, branch string) error {
	_, err := r.Run(ctx, dir, "push", url, "--delete", branch)
	return err
}

// CloneBranch performs a single-branch clone of branch into dest.
func CloneBranch(ctx context.Context, r Runner, dir, url, branch, dest string) error {
	_, err := r.Run(ctx, dir, "clone", "--single-branch", "--branch", branch, url, dest)
	return err
}

// IsUpToDate reports whether a push result indicates nothing was sent.
func IsUpToDate(res Result) bool {
	return strings.Contains(res.Stdout+res.Stderr, "Everything up-to-date")
}
