package branchkeeper

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skaphos/branchkeeper/internal/cliio"
	"github.com/skaphos/branchkeeper/internal/discovery"
	"github.com/skaphos/branchkeeper/internal/engine"
	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/registry"
	"github.com/skaphos/branchkeeper/internal/termstyle"
)

var statusCmd = &cobra.Command{
	Use:   "status [project]",
	Short: "Show versions that differ from their remote branch",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		version, _ := cmd.Flags().GetString("version")
		all, _ := cmd.Flags().GetBool("all")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		if all && version != "" {
			return fmt.Errorf("--version cannot be combined with --all")
		}
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		eng := rt.engine(cmd)

		var reports []model.ProjectStatusReport
		switch {
		case all:
			reg, err := rt.loadRegistry()
			if err != nil {
				return err
			}
			paths, err := statusTargets(cmd.Context(), reg, rt.cfg.Exclude)
			if err != nil {
				return err
			}
			debugf(cmd, "checking %d projects", len(paths))
			reports = statusAll(cmd.Context(), eng, paths, rt.cfg.Defaults.Concurrency)
		case version != "":
			project, err := projectPathArg(args, 0)
			if err != nil {
				return err
			}
			d, err := eng.VersionStatus(cmd.Context(), project, version)
			if err != nil {
				return err
			}
			reports = []model.ProjectStatusReport{{Project: filepath.Base(project), Path: project, Versions: []model.DriftDescriptor{d}}}
		default:
			project, err := projectPathArg(args, 0)
			if err != nil {
				return err
			}
			report, err := eng.ProjectStatus(cmd.Context(), project)
			if err != nil {
				return err
			}
			reports = []model.ProjectStatusReport{report}
		}

		if statusHasErrors(reports) {
			raiseExitCode(2)
		}
		if format == "json" {
			if len(reports) == 1 && !all {
				return writeJSON(cmd, reports[0])
			}
			return writeJSON(cmd, reports)
		}
		if err := writeStatusTable(cmd.OutOrStdout(), reports, all, noHeaders); err != nil {
			return err
		}
		if countDrift(reports) == 0 {
			infof(cmd, "everything in sync")
		}
		return nil
	},
}

// statusTargets lists linked projects from the registry and the source roots.
func statusTargets(ctx context.Context, reg *registry.Registry, exclude []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	add := func(path, remote string) {
		if remote == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	for _, entry := range reg.Entries {
		if entry.Status == registry.StatusMissing {
			continue
		}
		add(entry.Path, entry.RemoteURL)
	}
	projects, err := discovery.ScanSources(ctx, reg.Sources, exclude)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		add(p.Path, p.RemoteURL)
	}
	return paths, nil
}

// statusAll computes every project report concurrently. Failures are kept
// in-band on the report so one project never hides the others.
func statusAll(ctx context.Context, eng *engine.Engine, paths []string, concurrency int) []model.ProjectStatusReport {
	reports := make([]model.ProjectStatusReport, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, path := range paths {
		g.Go(func() error {
			report, err := eng.ProjectStatus(gctx, path)
			if err != nil {
				report.Path = path
				report.Error = err.Error()
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func statusHasErrors(reports []model.ProjectStatusReport) bool {
	for _, r := range reports {
		if r.Error != "" {
			return true
		}
		for _, d := range r.Versions {
			if d.Status == model.DriftError {
				return true
			}
		}
	}
	return false
}

func countDrift(reports []model.ProjectStatusReport) int {
	n := 0
	for _, r := range reports {
		if r.Error != "" {
			n++
		}
		for _, d := range r.Versions {
			if d.HasDrift() {
				n++
			}
		}
	}
	return n
}

func writeStatusTable(out io.Writer, reports []model.ProjectStatusReport, withProject, noHeaders bool) error {
	headers := []string{"VERSION", "STATUS", "CHANGES", "AHEAD", "BEHIND", "REMOTE", "MESSAGE"}
	if withProject {
		headers = append([]string{"PROJECT"}, headers...)
	}
	var rows [][]string
	for _, r := range reports {
		if r.Error != "" {
			row := []string{"-", termstyle.Colorize(colorOutputEnabled, string(model.DriftError), termstyle.Error), "-", "-", "-", "-", r.Error}
			if withProject {
				row = append([]string{r.Path}, row...)
			}
			rows = append(rows, row)
			continue
		}
		for _, d := range r.Versions {
			row := []string{
				d.Name,
				termstyle.Colorize(colorOutputEnabled, string(d.Status), termstyle.DriftColor(d.Status)),
				yesNo(d.LocalChanges),
				strconv.Itoa(d.CommitsAhead),
				strconv.Itoa(d.CommitsBehind),
				yesNo(d.RemoteExists),
				d.Message,
			}
			if withProject {
				row = append([]string{r.Project}, row...)
			}
			rows = append(rows, row)
		}
	}
	return cliio.WriteTable(out, false, noHeaders, headers, rows)
}

func init() {
	statusCmd.Flags().String("version", "", "report a single version folder")
	statusCmd.Flags().Bool("all", false, "report every linked project from the registry and source roots")
	statusCmd.Flags().Bool("no-headers", false, "omit table headers")
	addFormatFlag(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
