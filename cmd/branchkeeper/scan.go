package branchkeeper

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/skaphos/branchkeeper/internal/cliio"
	"github.com/skaphos/branchkeeper/internal/discovery"
	"github.com/skaphos/branchkeeper/internal/gitx"
	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/registry"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan source folders for projects and update the registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		pruneStale, _ := cmd.Flags().GetBool("prune-stale")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		debugf(cmd, "starting scan")
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		reg, err := rt.loadRegistry()
		if err != nil {
			return err
		}
		projects, err := scanInto(cmd.Context(), reg, rt.cfg.Exclude)
		if err != nil {
			return err
		}
		if pruneStale {
			n := reg.PruneStale(time.Duration(rt.cfg.RegistryStaleDays) * 24 * time.Hour)
			debugf(cmd, "pruned %d stale entries", n)
		}
		if err := rt.saveRegistry(reg); err != nil {
			return err
		}
		if hasRegistryWarnings(reg) {
			// Missing entries are warning-level conditions for scan/status flows.
			raiseExitCode(1)
		}

		if format == "json" {
			if projects == nil {
				projects = []model.ProjectInfo{}
			}
			return writeJSON(cmd, projects)
		}
		if err := writeScanTable(cmd.OutOrStdout(), projects, noHeaders); err != nil {
			return err
		}
		infof(cmd, "scan completed: %d projects", len(projects))
		return nil
	},
}

// scanInto lists projects under the registered sources and records them.
func scanInto(ctx context.Context, reg *registry.Registry, exclude []string) ([]model.ProjectInfo, error) {
	projects, err := discovery.ScanSources(ctx, reg.Sources, exclude)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, p := range projects {
		entry := registry.Entry{Path: p.Path, RemoteURL: p.RemoteURL, LastSeen: now}
		if p.RemoteURL != "" {
			entry.ProjectID = gitx.NormalizeURL(p.RemoteURL)
		}
		reg.Upsert(entry)
	}
	if err := reg.ValidatePaths(); err != nil {
		return nil, err
	}
	return projects, nil
}

func hasRegistryWarnings(reg *registry.Registry) bool {
	for _, entry := range reg.Entries {
		if entry.Status == registry.StatusMissing {
			return true
		}
	}
	return false
}

func writeScanTable(out io.Writer, projects []model.ProjectInfo, noHeaders bool) error {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		remote := p.RemoteURL
		if remote == "" {
			remote = "-"
		}
		rows = append(rows, []string{p.Name, strconv.Itoa(len(p.Versions)), remote, p.Path})
	}
	return cliio.WriteTable(out, false, noHeaders, []string{"PROJECT", "VERSIONS", "REMOTE", "PATH"}, rows)
}

func init() {
	scanCmd.Flags().Bool("prune-stale", false, "remove registry entries missing beyond the stale threshold")
	scanCmd.Flags().Bool("no-headers", false, "omit table headers")
	addFormatFlag(scanCmd)
	rootCmd.AddCommand(scanCmd)
}
