package branchkeeper

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/skaphos/branchkeeper/internal/cliio"
	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/registry"
	"github.com/skaphos/branchkeeper/internal/termstyle"
)

var syncCmd = &cobra.Command{
	Use:   "sync [project]",
	Short: "Publish every version folder to its remote branch",
	Long: "Sync pulls remote changes into each version, commits local changes and pushes the result. " +
		"A diverged remote branch is overwritten with the local state and reported as forced_overwrite.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		version, _ := cmd.Flags().GetString("version")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		project, err := projectPathArg(args, 0)
		if err != nil {
			return err
		}
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		eng := rt.engine(cmd)
		debugf(cmd, "syncing %s", project)

		var report model.ProjectSyncReport
		if version != "" {
			r, err := eng.SyncVersion(cmd.Context(), project, version)
			if err != nil {
				return err
			}
			report = model.ProjectSyncReport{Path: project, Versions: []model.SyncReport{r}}
			if r.OK {
				report.Synced = 1
			}
		} else {
			report, err = eng.SyncProject(cmd.Context(), project)
			if err != nil {
				return err
			}
		}

		raiseExitCode(syncExitCode(report))
		if err := recordSync(rt, project, report); err != nil {
			infof(cmd, "warning: registry not updated: %v", err)
			raiseExitCode(1)
		}

		if format == "json" {
			if version != "" {
				return writeJSON(cmd, report.Versions[0])
			}
			return writeJSON(cmd, report)
		}
		if report.RootBranch.Error != "" {
			infof(cmd, "warning: root branch: %s", report.RootBranch.Error)
		}
		if err := writeSyncTable(cmd.OutOrStdout(), report.Versions, noHeaders); err != nil {
			return err
		}
		if report.Message != "" {
			infof(cmd, "%s", report.Message)
		}
		return nil
	},
}

// syncExitCode maps a report to the CLI severity scale.
func syncExitCode(report model.ProjectSyncReport) int {
	code := 0
	if report.RootBranch.Error != "" {
		code = 1
	}
	for _, v := range report.Versions {
		switch {
		case !v.OK:
			return 2
		case len(v.Warnings()) > 0:
			code = 1
		}
	}
	return code
}

func recordSync(rt *cliRuntime, project string, report model.ProjectSyncReport) error {
	reg, err := rt.loadRegistry()
	if err != nil {
		return err
	}
	result := model.SyncResult{OK: report.OK(), At: time.Now(), Synced: report.Synced}
	if !result.OK {
		result.Error = fmt.Sprintf("%d of %d versions failed", len(report.Versions)-report.Synced, len(report.Versions))
	}
	if reg.FindByPath(project) == nil {
		reg.Upsert(registry.Entry{Path: project, LastSeen: result.At})
	}
	reg.RecordSync(project, result)
	return rt.saveRegistry(reg)
}

func writeSyncTable(out io.Writer, reports []model.SyncReport, noHeaders bool) error {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Version,
			termstyle.Colorize(colorOutputEnabled, string(r.Outcome), termstyle.OutcomeColor(r.Outcome)),
			r.ErrorClass,
			r.Message,
		})
	}
	return cliio.WriteTable(out, false, noHeaders, []string{"VERSION", "OUTCOME", "ERROR_CLASS", "MESSAGE"}, rows)
}

func init() {
	syncCmd.Flags().String("version", "", "sync a single version folder")
	syncCmd.Flags().Bool("no-headers", false, "omit table headers")
	addFormatFlag(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
