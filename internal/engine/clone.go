package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skaphos/branchkeeper/internal/credential"
	"github.com/skaphos/branchkeeper/internal/gitx"
	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/remotelink"
)

// Clone creates <dest>/<repo name> with one version folder per remote
// branch, then links the project root to the remote.
func (e *Engine) Clone(ctx context.Context, rawURL, dest string) (model.CloneResult, error) {
	if err := credential.Validate(rawURL); err != nil {
		return model.CloneResult{}, err
	}
	clean := credential.Strip(rawURL)
	name := gitx.RepoName(clean)
	if name == "" || strings.HasPrefix(name, ".") {
		return model.CloneResult{}, fmt.Errorf("%w: cannot derive a project name from %s", credential.ErrInvalidRemoteURL, clean)
	}
	dest, err := absPath(dest)
	if err != nil {
		return model.CloneResult{}, err
	}
	projectPath := filepath.Join(dest, name)
	result := model.CloneResult{Path: projectPath}

	unlock := e.locks.Lock(projectKey(projectPath))
	defer unlock()

	s, err := e.sessionFor(ctx, clean, false)
	if err != nil {
		return result, err
	}
	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		return result, err
	}

	heads, err := gitx.LsRemoteHeads(ctx, e.runner, projectPath, s.authURL)
	if err != nil {
		return result, fmt.Errorf("list remote branches: %w", err)
	}
	if len(heads) == 0 {
		return result, fmt.Errorf("%w: %s", ErrEmptyRemote, clean)
	}

	for _, branch := range heads {
		if e.IsReserved(branch) {
			continue
		}
		if err := e.cloneVersion(ctx, s, projectPath, branch, &result); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", branch, err))
		}
	}
	sort.Strings(result.Cloned)

	e.linkClonedRoot(ctx, s, projectPath, &result)
	if _, err := e.ignore.WriteDefault(projectPath, e.cfg.DefaultIgnore); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("ignore rules: %v", err))
	}
	e.log.Info().Str("project", name).Int("cloned", len(result.Cloned)).Int("skipped", len(result.Skipped)).Msg("clone finished")
	return result, nil
}

func (e *Engine) cloneVersion(ctx context.Context, s session, projectPath, branch string, result *model.CloneResult) error {
	if !validBranchName(branch) {
		result.Skipped = append(result.Skipped, branch)
		return fmt.Errorf("branch name is not a valid folder name")
	}
	target := filepath.Join(projectPath, branch)
	if _, err := os.Stat(target); err == nil {
		result.Skipped = append(result.Skipped, branch)
		e.log.Warn().Str("version", branch).Msg("folder exists, skipping clone")
		return nil
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	if err := gitx.CloneBranch(ctx, e.runner, projectPath, s.authURL, branch, target); err != nil {
		_ = os.RemoveAll(target)
		return err
	}
	// The clone recorded the authenticated URL; replace it before anything else.
	if err := gitx.EnsureRemote(ctx, e.runner, target, remotelink.RemoteName, s.remote); err != nil {
		_ = os.RemoveAll(target)
		return fmt.Errorf("reset origin: %w", err)
	}
	result.Cloned = append(result.Cloned, branch)
	return nil
}

func (e *Engine) linkClonedRoot(ctx context.Context, s session, projectPath string, result *model.CloneResult) {
	r := e.runner
	root := e.rootBranch()
	if !gitx.HasRepo(projectPath) {
		if err := gitx.Init(ctx, r, projectPath, root); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("init project root: %v", err))
			return
		}
	}
	if err := gitx.EnsureRemote(ctx, r, projectPath, remotelink.RemoteName, s.remote); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("link project root: %v", err))
		return
	}
	if err := gitx.FetchBranchInto(ctx, r, projectPath, s.authURL, remotelink.RemoteName, root); err != nil {
		e.log.Debug().Err(err).Msg("root branch fetch failed")
		result.Warnings = append(result.Warnings, fmt.Sprintf("fetch %s: %v", root, err))
	}
}
