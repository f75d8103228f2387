package engine

import (
	"context"
	"strings"

	"github.com/skaphos/branchkeeper/internal/credential"
	"github.com/skaphos/branchkeeper/internal/gitx"
)

// RemoteBranches lists the non-reserved branches of authURL in remote order,
// running git in dir. Names starting with '-' are dropped. Failures yield an
// empty list.
func (e *Engine) RemoteBranches(ctx context.Context, authURL, dir string) []string {
	heads, err := gitx.LsRemoteHeads(ctx, e.runner, dir, authURL)
	if err != nil {
		e.log.Warn().Err(err).Str("remote", credential.Redact(authURL)).Msg("listing remote branches failed")
		return nil
	}
	branches := make([]string, 0, len(heads))
	for _, h := range heads {
		if e.IsReserved(h) || strings.HasPrefix(h, "-") {
			continue
		}
		branches = append(branches, h)
	}
	return branches
}
