package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skaphos/branchkeeper/internal/gitx"
	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/remotelink"
	"github.com/skaphos/branchkeeper/internal/strutil"
)

const stashMessage = "branchkeeper: pre-sync stash"

// SyncVersion reconciles one version folder with its remote branch.
func (e *Engine) SyncVersion(ctx context.Context, projectPath, version string) (model.SyncReport, error) {
	projectPath, err := absPath(projectPath)
	if err != nil {
		return model.SyncReport{}, err
	}
	path, err := e.versionPath(projectPath, version)
	if err != nil {
		return model.SyncReport{}, err
	}
	s, err := e.openSession(ctx, projectPath, true)
	if err != nil {
		return model.SyncReport{}, err
	}
	return e.syncVersion(ctx, s, path, version, e.cfg.CommitMessage), nil
}

// SyncProject bootstraps the root branch and then syncs every version in
// order. A failing version does not stop the others.
func (e *Engine) SyncProject(ctx context.Context, projectPath string) (model.ProjectSyncReport, error) {
	projectPath, err := absPath(projectPath)
	if err != nil {
		return model.ProjectSyncReport{}, err
	}
	report := model.ProjectSyncReport{Project: filepath.Base(projectPath), Path: projectPath}

	unlock := e.locks.Lock(projectKey(projectPath))
	defer unlock()

	s, err := e.openSession(ctx, projectPath, true)
	if err != nil {
		return report, err
	}
	versions, err := e.Versions(projectPath)
	if err != nil {
		return report, err
	}

	report.RootBranch = model.StepResult{Step: model.StepRootBranch, OK: true}
	created, err := e.ensureRootBranch(ctx, s, report.Project, versions)
	switch {
	case err != nil:
		report.RootBranch = model.StepResult{Step: model.StepRootBranch, Error: err.Error()}
		e.log.Warn().Err(err).Str("project", report.Project).Msg("root branch bootstrap failed")
	case !created:
		report.RootBranch.Skipped = true
	}

	for _, v := range versions {
		if err := ctx.Err(); err != nil {
			report.Versions = append(report.Versions, model.SyncReport{
				Version: v, Branch: e.BranchForVersion(v), Path: filepath.Join(projectPath, v),
				Outcome: model.OutcomeFailed, Message: err.Error(), ErrorClass: gitx.ClassifyError(err),
			})
			continue
		}
		r := e.syncVersion(ctx, s, filepath.Join(projectPath, v), v, e.cfg.ProjectCommitMessage)
		if r.OK {
			report.Synced++
		}
		report.Versions = append(report.Versions, r)
	}
	report.Message = fmt.Sprintf("%d/%d versions synchronized", report.Synced, len(report.Versions))
	e.log.Info().Str("project", report.Project).Int("synced", report.Synced).Int("versions", len(versions)).Msg("project sync finished")
	return report, nil
}

// stepLog accumulates step results for one version sync.
type stepLog struct {
	report *model.SyncReport
	log    zerolog.Logger
}

func (l *stepLog) ok(step string) {
	l.report.Steps = append(l.report.Steps, model.StepResult{Step: step, OK: true})
}

func (l *stepLog) skip(step string) {
	l.report.Steps = append(l.report.Steps, model.StepResult{Step: step, Skipped: true})
}

func (l *stepLog) warn(step string, err error) {
	l.log.Warn().Str("step", step).Err(err).Msg("sync step failed, continuing")
	l.report.Steps = append(l.report.Steps, model.StepResult{Step: step, Error: errorText(err)})
}

func (l *stepLog) fatal(step string, err error) model.SyncReport {
	l.log.Error().Str("step", step).Err(err).Msg("sync aborted")
	l.report.Steps = append(l.report.Steps, model.StepResult{Step: step, Fatal: true, Error: errorText(err)})
	l.report.OK = false
	l.report.Outcome = model.OutcomeFailed
	l.report.ErrorClass = gitx.ClassifyError(err)
	l.report.Message = fmt.Sprintf("%s failed: %s", step, errorText(err))
	if w := l.report.WarningText(); w != "" {
		l.report.Message += " (warnings: " + w + ")"
	}
	return *l.report
}

func (l *stepLog) done(outcome model.OutcomeKind) model.SyncReport {
	l.report.OK = true
	l.report.Outcome = outcome
	l.report.Message = string(outcome)
	if w := l.report.WarningText(); w != "" {
		l.report.Message += " (warnings: " + w + ")"
	}
	l.log.Info().Str("outcome", string(outcome)).Msg("version synced")
	return *l.report
}

func errorText(err error) string {
	if stderr := strutil.FirstLine(gitx.Stderr(err)); stderr != "" && !strings.Contains(err.Error(), stderr) {
		return err.Error() + ": " + stderr
	}
	return err.Error()
}

func (e *Engine) syncVersion(ctx context.Context, s session, path, name, message string) model.SyncReport {
	unlock := e.locks.Lock(path)
	defer unlock()
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	branch := e.BranchForVersion(name)
	report := &model.SyncReport{Version: name, Branch: branch, Path: path}
	steps := &stepLog{report: report, log: e.log.With().Str("version", name).Logger()}
	r := e.runner

	if gitx.HasRepo(path) {
		steps.skip(model.StepEnsureRepo)
	} else if err := gitx.Init(ctx, r, path, branch); err != nil {
		return steps.fatal(model.StepEnsureRepo, err)
	} else {
		steps.ok(model.StepEnsureRepo)
	}

	if err := gitx.SetIdentity(ctx, r, path, s.author.Name, s.author.Email); err != nil {
		steps.warn(model.StepIdentity, err)
	} else {
		steps.ok(model.StepIdentity)
	}
	if err := gitx.EnsureRemote(ctx, r, path, remotelink.RemoteName, s.remote); err != nil {
		return steps.fatal(model.StepOrigin, err)
	}
	steps.ok(model.StepOrigin)

	// An unknown remote state must never lead to a forced push.
	exists, err := gitx.RemoteBranchExists(ctx, r, path, s.authURL, branch)
	if err != nil {
		return steps.fatal(model.StepFetch, err)
	}
	if exists {
		e.pullRemote(ctx, steps, s, path, branch)
	} else {
		steps.skip(model.StepFetch)
		steps.skip(model.StepPull)
	}

	if err := gitx.AddAll(ctx, r, path); err != nil {
		steps.warn(model.StepCommit, err)
	} else if dirty, err := gitx.IsDirty(ctx, r, path); err != nil {
		steps.warn(model.StepCommit, err)
	} else if !dirty {
		steps.skip(model.StepCommit)
	} else if err := gitx.Commit(ctx, r, path, message); err != nil {
		steps.warn(model.StepCommit, err)
	} else {
		steps.ok(model.StepCommit)
	}

	if !gitx.HasHead(ctx, r, path) {
		steps.skip(model.StepPublish)
		return steps.done(model.OutcomeUpToDate)
	}
	return e.publish(ctx, steps, s, path, branch)
}

func (e *Engine) pullRemote(ctx context.Context, steps *stepLog, s session, path, branch string) {
	r := e.runner
	if err := gitx.FetchBranchInto(ctx, r, path, s.authURL, remotelink.RemoteName, branch); err != nil {
		steps.warn(model.StepFetch, err)
	} else {
		steps.ok(model.StepFetch)
	}

	upstream := gitx.TrackingRef(remotelink.RemoteName, branch)
	if !gitx.HasHead(ctx, r, path) {
		steps.skip(model.StepStash)
		if err := gitx.AdoptHistory(ctx, r, path, upstream); err != nil {
			steps.warn(model.StepPull, err)
		} else {
			steps.ok(model.StepPull)
		}
		steps.skip(model.StepStashPop)
		return
	}

	stashed := false
	if dirty, err := gitx.IsDirty(ctx, r, path); err != nil {
		steps.warn(model.StepStash, err)
	} else if !dirty {
		steps.skip(model.StepStash)
	} else if stashed, err = gitx.StashPush(ctx, r, path, stashMessage); err != nil {
		steps.warn(model.StepStash, err)
	} else {
		steps.ok(model.StepStash)
	}

	if err := gitx.Rebase(ctx, r, path, upstream); err != nil {
		if gitx.RebaseInProgress(path) {
			if abortErr := gitx.RebaseAbort(ctx, r, path); abortErr != nil {
				err = errors.Join(err, fmt.Errorf("rebase --abort: %w", abortErr))
			}
		}
		steps.warn(model.StepPull, err)
	} else {
		steps.ok(model.StepPull)
	}

	if !stashed {
		steps.skip(model.StepStashPop)
		return
	}
	if err := gitx.StashPop(ctx, r, path); err != nil {
		// The stash entry is kept; drop the half-applied state so conflict
		// markers are never committed.
		if resetErr := gitx.ResetHard(ctx, r, path); resetErr != nil {
			err = errors.Join(err, fmt.Errorf("reset: %w", resetErr))
		}
		steps.warn(model.StepStashPop, fmt.Errorf("local changes kept in stash: %w", err))
		return
	}
	steps.ok(model.StepStashPop)
}

func (e *Engine) publish(ctx context.Context, steps *stepLog, s session, path, branch string) model.SyncReport {
	res, err := gitx.PushHead(ctx, e.runner, path, s.authURL, branch, false)
	if err == nil {
		steps.ok(model.StepPublish)
		if gitx.IsUpToDate(res) {
			return steps.done(model.OutcomeUpToDate)
		}
		return steps.done(model.OutcomePushed)
	}
	if !gitx.IsPushRejected(err) {
		return steps.fatal(model.StepPublish, err)
	}

	steps.warn(model.StepPublish, fmt.Errorf("%w: %v", gitx.ErrPushRejected, err))
	steps.log.Warn().Str("branch", branch).Msg("remote diverged, overwriting with local state")
	if _, err := gitx.PushHead(ctx, e.runner, path, s.authURL, branch, true); err != nil {
		return steps.fatal(model.StepForcePush, err)
	}
	steps.ok(model.StepForcePush)
	return steps.done(model.OutcomeForcedOverwrite)
}
