package branchkeeper

import (
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link <url> [project]",
	Short: "Link a project to its remote repository",
	Long:  "Link records the remote in the project root. Credentials embedded in the URL are dropped; the access token is read from BRANCHKEEPER_TOKEN or token_file when needed.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPathArg(args, 1)
		if err != nil {
			return err
		}
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		clean, err := rt.engine(cmd).LinkProject(cmd.Context(), project, args[0])
		if err != nil {
			return err
		}
		infof(cmd, "linked %s to %s", project, clean)
		return nil
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink [project]",
	Short: "Remove the remote link of a project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPathArg(args, 0)
		if err != nil {
			return err
		}
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		if _, err := rt.engine(cmd).LinkProject(cmd.Context(), project, ""); err != nil {
			return err
		}
		infof(cmd, "unlinked %s", project)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
}
