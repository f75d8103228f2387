package branchkeeper

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the git backend is available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		avail := rt.engine(cmd).CheckInstalled(cmd.Context())
		if !avail.Installed {
			raiseExitCode(2)
		}
		if format == "json" {
			return writeJSON(cmd, avail)
		}
		if !avail.Installed {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "git not available: %s\n", avail.Error)
			return nil
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), avail.Version)
		return nil
	},
}

func init() {
	addFormatFlag(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
