package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skaphos/branchkeeper/internal/gitx"
	"github.com/skaphos/branchkeeper/internal/model"
)

var (
	// ErrReservedBranch is returned when deleting main/master/HEAD or the root branch.
	ErrReservedBranch = errors.New("branch is reserved")
	// ErrBranchHasFolder is returned when pruning a branch that still has a local version.
	ErrBranchHasFolder = errors.New("branch still has a local version folder")
	// ErrInvalidBranchName is returned for branch names git would read as an option.
	ErrInvalidBranchName = errors.New("branch name starts with '-'")
)

// OrphanBranches returns remote branches without a local version folder.
func (e *Engine) OrphanBranches(ctx context.Context, projectPath string) ([]string, error) {
	projectPath, err := absPath(projectPath)
	if err != nil {
		return nil, err
	}
	if _, err := e.openSession(ctx, projectPath, false); err != nil {
		return nil, err
	}
	report, err := e.ProjectStatus(ctx, projectPath)
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, d := range report.Versions {
		if d.Status == model.DriftOrphan {
			orphans = append(orphans, d.Name)
		}
	}
	return orphans, nil
}

// PruneBranches deletes the given orphan branches from the remote.
func (e *Engine) PruneBranches(ctx context.Context, projectPath string, branches []string) ([]model.PruneResult, error) {
	projectPath, err := absPath(projectPath)
	if err != nil {
		return nil, err
	}
	s, err := e.openSession(ctx, projectPath, false)
	if err != nil {
		return nil, err
	}
	versions, err := e.Versions(projectPath)
	if err != nil {
		return nil, err
	}
	local := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		local[e.BranchForVersion(v)] = struct{}{}
	}

	results := make([]model.PruneResult, 0, len(branches))
	for _, branch := range branches {
		if _, ok := local[branch]; ok {
			results = append(results, model.PruneResult{Branch: branch, Error: ErrBranchHasFolder.Error()})
			continue
		}
		results = append(results, e.deleteBranch(ctx, s, projectPath, branch))
	}
	return results, nil
}

// DeleteVersionBranch removes the remote branch of a version. The caller
// removes the folder itself.
func (e *Engine) DeleteVersionBranch(ctx context.Context, projectPath, version string) (model.PruneResult, error) {
	projectPath, err := absPath(projectPath)
	if err != nil {
		return model.PruneResult{}, err
	}
	if !validBranchName(version) {
		return model.PruneResult{}, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}
	s, err := e.openSession(ctx, projectPath, false)
	if err != nil {
		return model.PruneResult{}, err
	}
	return e.deleteBranch(ctx, s, projectPath, e.BranchForVersion(version)), nil
}

func (e *Engine) deleteBranch(ctx context.Context, s session, dir, branch string) model.PruneResult {
	if e.IsReserved(branch) {
		return model.PruneResult{Branch: branch, Error: ErrReservedBranch.Error()}
	}
	if strings.HasPrefix(branch, "-") {
		return model.PruneResult{Branch: branch, Error: ErrInvalidBranchName.Error()}
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	if err := gitx.DeleteRemoteBranch(ctx, e.runner, dir, s.authURL, branch); err != nil {
		e.log.Warn().Err(err).Str("branch", branch).Msg("delete remote branch failed")
		return model.PruneResult{Branch: branch, Error: errorText(err)}
	}
	e.log.Info().Str("branch", branch).Msg("deleted remote branch")
	return model.PruneResult{Branch: branch, OK: true}
}
