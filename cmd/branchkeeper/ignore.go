package branchkeeper

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/skaphos/branchkeeper/internal/ignore"
)

var ignoreCmd = &cobra.Command{
	Use:   "ignore",
	Short: "Read or replace the ignore rules of a project",
}

var ignoreGetCmd = &cobra.Command{
	Use:   "get [project]",
	Short: "Print the ignore rules of a project",
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
		content, err := rt.engine(cmd).ReadIgnore(project)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	},
}

var ignoreSetCmd = &cobra.Command{
	Use:   "set [project]",
	Short: "Replace the ignore rules of a project",
	Long:  "Set reads the new rules from --file, or from stdin when no file is given. --defaults writes the configured default rule set.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPathArg(args, 0)
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		defaults, _ := cmd.Flags().GetBool("defaults")
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}

		var content string
		switch {
		case defaults:
			content = ignore.Join(rt.cfg.DefaultIgnore)
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			content = string(data)
		default:
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			content = string(data)
		}
		if err := rt.engine(cmd).WriteIgnore(project, content); err != nil {
			return err
		}
		infof(cmd, "wrote %d rules to %s", len(ignore.Parse(content)), project)
		return nil
	},
}

func init() {
	ignoreSetCmd.Flags().String("file", "", "read rules from this file")
	ignoreSetCmd.Flags().Bool("defaults", false, "write the configured default rules")
	ignoreCmd.AddCommand(ignoreGetCmd)
	ignoreCmd.AddCommand(ignoreSetCmd)
	rootCmd.AddCommand(ignoreCmd)
}
