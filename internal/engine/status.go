package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/skaphos/branchkeeper/internal/credential"
	"github.com/skaphos/branchkeeper/internal/gitx"
	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/remotelink"
	"github.com/skaphos/branchkeeper/internal/sortutil"
)

// VersionStatus computes the drift of one version folder. Only a missing
// remote link fails the call; credential and git failures are reported as an
// error entry.
func (e *Engine) VersionStatus(ctx context.Context, projectPath, version string) (model.DriftDescriptor, error) {
	projectPath, err := absPath(projectPath)
	if err != nil {
		return model.DriftDescriptor{}, err
	}
	path, err := e.versionPath(projectPath, version)
	if err != nil {
		return model.DriftDescriptor{}, err
	}
	remote, err := e.requireLink(projectPath)
	if err != nil {
		return model.DriftDescriptor{}, err
	}
	s, sessErr := e.sessionFor(ctx, remote, false)
	return e.versionStatus(ctx, s, sessErr, path, version), nil
}

// ProjectStatus reports every version with drift plus remote branches that
// have no local folder. Per-version failures are reported in-band.
func (e *Engine) ProjectStatus(ctx context.Context, projectPath string) (model.ProjectStatusReport, error) {
	projectPath, err := absPath(projectPath)
	if err != nil {
		return model.ProjectStatusReport{}, err
	}
	report := model.ProjectStatusReport{
		Project:     filepath.Base(projectPath),
		Path:        projectPath,
		GeneratedAt: time.Now(),
	}
	remote, err := e.requireLink(projectPath)
	if err != nil {
		return report, err
	}
	report.RemoteURL = credential.Strip(remote)
	s, sessErr := e.sessionFor(ctx, remote, false)

	versions, err := e.Versions(projectPath)
	if err != nil {
		return report, err
	}

	local := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		local[e.BranchForVersion(v)] = struct{}{}
		d := e.versionStatus(ctx, s, sessErr, filepath.Join(projectPath, v), v)
		if d.HasDrift() {
			report.Versions = append(report.Versions, d)
		}
	}

	if sessErr != nil {
		sortutil.SortDrift(report.Versions)
		e.log.Warn().Err(sessErr).Str("project", report.Project).Msg("skipping remote branch discovery")
		return report, nil
	}

	discoveryDir := projectPath
	if len(versions) > 0 {
		discoveryDir = filepath.Join(projectPath, versions[0])
	}
	for _, branch := range e.RemoteBranches(ctx, s.authURL, discoveryDir) {
		if _, ok := local[branch]; ok {
			continue
		}
		report.Versions = append(report.Versions, model.DriftDescriptor{
			Name:         branch,
			Status:       model.DriftOrphan,
			RemoteExists: true,
		})
	}
	sortutil.SortDrift(report.Versions)
	e.log.Debug().Str("project", report.Project).Int("entries", len(report.Versions)).Msg("project status computed")
	return report, nil
}

func (e *Engine) versionStatus(ctx context.Context, s session, sessErr error, path, name string) model.DriftDescriptor {
	if !gitx.HasRepo(path) {
		return model.DriftDescriptor{Name: name, Status: model.DriftNew, LocalChanges: true}
	}
	if sessErr != nil {
		class := gitx.ClassifyError(sessErr)
		if errors.Is(sessErr, credential.ErrMissingCredential) {
			class = gitx.ClassAuth
		}
		return model.DriftDescriptor{Name: name, Status: model.DriftError, Message: "credential: " + sessErr.Error(), ErrorClass: class}
	}

	unlock := e.locks.Lock(path)
	defer unlock()
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	d := model.DriftDescriptor{Name: name, Status: model.DriftOK}
	fail := func(step string, err error) model.DriftDescriptor {
		d.Status = model.DriftError
		d.Message = fmt.Sprintf("%s: %v", step, err)
		d.ErrorClass = gitx.ClassifyError(err)
		e.log.Warn().Str("version", name).Str("step", step).Err(err).Msg("status failed")
		return d
	}

	branch := e.BranchForVersion(name)
	if err := gitx.EnsureRemote(ctx, e.runner, path, remotelink.RemoteName, s.remote); err != nil {
		return fail(model.StepOrigin, err)
	}
	if err := gitx.FetchInto(ctx, e.runner, path, s.authURL, remotelink.RemoteName); err != nil {
		return fail(model.StepFetch, err)
	}
	dirty, err := gitx.IsDirty(ctx, e.runner, path)
	if err != nil {
		return fail("status", err)
	}
	d.LocalChanges = dirty

	exists, err := gitx.RemoteBranchExists(ctx, e.runner, path, s.authURL, branch)
	if err != nil {
		return fail(model.StepFetch, err)
	}
	d.RemoteExists = exists
	hasHead := gitx.HasHead(ctx, e.runner, path)
	remoteRef := gitx.TrackingRef(remotelink.RemoteName, branch)
	switch {
	case exists && hasHead:
		d.CommitsAhead, d.CommitsBehind, err = gitx.AheadBehind(ctx, e.runner, path, "HEAD", remoteRef)
	case exists:
		d.CommitsBehind, err = gitx.RevCount(ctx, e.runner, path, remoteRef)
	case hasHead:
		d.CommitsAhead, err = gitx.RevCount(ctx, e.runner, path, "HEAD")
	}
	if err != nil {
		return fail("compare", err)
	}
	return d
}
