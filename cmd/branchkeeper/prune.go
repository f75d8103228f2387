package branchkeeper

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/branchkeeper/internal/cliio"
	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/strutil"
	"github.com/skaphos/branchkeeper/internal/termstyle"
)

var pruneCmd = &cobra.Command{
	Use:   "prune [project]",
	Short: "Delete remote branches that have no version folder",
	Long:  "Prune deletes orphan branches from the remote. Without --branches every orphan reported by status is selected.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		project, err := projectPathArg(args, 0)
		if err != nil {
			return err
		}
		branchesRaw, _ := cmd.Flags().GetString("branches")
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		eng := rt.engine(cmd)

		branches := strutil.SplitCSV(branchesRaw)
		if len(branches) == 0 {
			branches, err = eng.OrphanBranches(cmd.Context(), project)
			if err != nil {
				return err
			}
		}
		if len(branches) == 0 {
			infof(cmd, "no orphan branches")
			return nil
		}

		prompt := fmt.Sprintf("Delete %d remote branches (%s)? [y/N]: ", len(branches), strings.Join(branches, ", "))
		ok, err := cliio.Confirm(cmd.ErrOrStderr(), cmd.InOrStdin(), isInteractive(cmd), flagYes, prompt)
		if err != nil {
			return err
		}
		if !ok {
			infof(cmd, "prune cancelled")
			return nil
		}

		results, err := eng.PruneBranches(cmd.Context(), project, branches)
		if err != nil {
			return err
		}
		for _, r := range results {
			if !r.OK {
				raiseExitCode(2)
			}
		}
		if format == "json" {
			return writeJSON(cmd, results)
		}
		return writePruneTable(cmd.OutOrStdout(), results)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <version> [project]",
	Short: "Delete a version folder and its remote branch",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPathArg(args, 1)
		if err != nil {
			return err
		}
		keepLocal, _ := cmd.Flags().GetBool("keep-local")
		version := args[0]
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}

		prompt := fmt.Sprintf("Delete version %s of %s and its remote branch? [y/N]: ", version, filepath.Base(project))
		ok, err := cliio.Confirm(cmd.ErrOrStderr(), cmd.InOrStdin(), isInteractive(cmd), flagYes, prompt)
		if err != nil {
			return err
		}
		if !ok {
			infof(cmd, "delete cancelled")
			return nil
		}

		result, err := rt.engine(cmd).DeleteVersionBranch(cmd.Context(), project, version)
		if err != nil {
			return err
		}
		if !result.OK {
			raiseExitCode(2)
			return fmt.Errorf("delete branch %s: %s", result.Branch, result.Error)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted branch %s\n", result.Branch)
		if keepLocal {
			return nil
		}
		if err := os.RemoveAll(filepath.Join(project, version)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted folder %s\n", filepath.Join(project, version))
		return nil
	},
}

func writePruneTable(out io.Writer, results []model.PruneResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		state := termstyle.Colorize(colorOutputEnabled, "deleted", termstyle.Healthy)
		if !r.OK {
			state = termstyle.Colorize(colorOutputEnabled, "refused", termstyle.Error)
		}
		rows = append(rows, []string{r.Branch, state, r.Error})
	}
	return cliio.WriteTable(out, false, false, []string{"BRANCH", "RESULT", "ERROR"}, rows)
}

func init() {
	pruneCmd.Flags().String("branches", "", "comma-separated branches to delete (default: all orphans)")
	addFormatFlag(pruneCmd)
	deleteCmd.Flags().Bool("keep-local", false, "only delete the remote branch")
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(deleteCmd)
}
