package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skaphos/branchkeeper/internal/gitx"
	"github.com/skaphos/branchkeeper/internal/remotelink"
	"github.com/skaphos/branchkeeper/internal/sortutil"
)

const rootCommitMessage = "Init Root"

// ensureRootBranch creates the root branch with a version index when the
// remote does not have it yet. It reports whether the branch was created.
func (e *Engine) ensureRootBranch(ctx context.Context, s session, project string, versions []string) (bool, error) {
	root := e.rootBranch()
	tmp, err := os.MkdirTemp("", "branchkeeper-root-*")
	if err != nil {
		return false, err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	r := e.runner

	if err := gitx.Init(ctx, r, tmp, root); err != nil {
		return false, err
	}
	if err := gitx.SetIdentity(ctx, r, tmp, s.author.Name, s.author.Email); err != nil {
		return false, err
	}
	if err := gitx.EnsureRemote(ctx, r, tmp, remotelink.RemoteName, s.remote); err != nil {
		return false, err
	}
	exists, err := gitx.RemoteBranchExists(ctx, r, tmp, s.authURL, root)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := os.WriteFile(filepath.Join(tmp, "README.md"), []byte(RootReadme(project, versions)), 0o644); err != nil {
		return false, err
	}
	if err := gitx.AddAll(ctx, r, tmp); err != nil {
		return false, err
	}
	if err := gitx.Commit(ctx, r, tmp, rootCommitMessage); err != nil {
		return false, err
	}
	if _, err := gitx.PushHead(ctx, r, tmp, s.authURL, root, false); err != nil {
		return false, err
	}
	e.log.Info().Str("project", project).Str("branch", root).Msg("created root branch")
	return true, nil
}

// RootReadme renders the index written to the root branch, newest version first.
func RootReadme(project string, versions []string) string {
	sorted := append([]string(nil), versions...)
	sortutil.SortVersionsDesc(sorted)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", project)
	if len(sorted) == 0 {
		b.WriteString("No versions yet.\n")
		return b.String()
	}
	b.WriteString("Each version lives on its own branch:\n\n")
	for _, v := range sorted {
		fmt.Fprintf(&b, "- `%s`\n", v)
	}
	return b.String()
}
