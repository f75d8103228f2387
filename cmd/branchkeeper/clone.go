package branchkeeper

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skaphos/branchkeeper/internal/credential"
	"github.com/skaphos/branchkeeper/internal/gitx"
	"github.com/skaphos/branchkeeper/internal/registry"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <url> [dest]",
	Short: "Create a project with one version folder per remote branch",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		dest, err := projectPathArg(args, 1)
		if err != nil {
			return err
		}
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		result, err := rt.engine(cmd).Clone(cmd.Context(), args[0], dest)
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			infof(cmd, "warning: %s", w)
		}
		if len(result.Warnings) > 0 {
			raiseExitCode(1)
		}

		remote := credential.Strip(args[0])
		reg, err := rt.loadRegistry()
		if err == nil {
			reg.Upsert(registry.Entry{
				ProjectID: gitx.NormalizeURL(remote),
				Path:      result.Path,
				RemoteURL: remote,
				LastSeen:  time.Now(),
			})
			err = rt.saveRegistry(reg)
		}
		if err != nil {
			infof(cmd, "warning: registry not updated: %v", err)
			raiseExitCode(1)
		}

		if format == "json" {
			return writeJSON(cmd, result)
		}
		for _, v := range result.Cloned {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cloned %s\n", v)
		}
		for _, v := range result.Skipped {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "skipped %s\n", v)
		}
		infof(cmd, "project ready at %s", result.Path)
		return nil
	},
}

func init() {
	addFormatFlag(cloneCmd)
	rootCmd.AddCommand(cloneCmd)
}
