package branchkeeper

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage the folders that hold projects",
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <dir>...",
	Short: "Register source folders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		reg, err := rt.loadRegistry()
		if err != nil {
			return err
		}
		for _, arg := range args {
			dir, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			if reg.AddSource(dir) {
				infof(cmd, "added source %s", dir)
			} else {
				infof(cmd, "source %s already registered", dir)
			}
		}
		return rt.saveRegistry(reg)
	},
}

var sourceRemoveCmd = &cobra.Command{
	Use:     "remove <dir>...",
	Aliases: []string{"rm"},
	Short:   "Forget source folders",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		reg, err := rt.loadRegistry()
		if err != nil {
			return err
		}
		for _, arg := range args {
			dir, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			if !reg.RemoveSource(dir) {
				infof(cmd, "source %s not registered", dir)
				raiseExitCode(1)
				continue
			}
			infof(cmd, "removed source %s", dir)
		}
		return rt.saveRegistry(reg)
	},
}

var sourceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List source folders",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		reg, err := rt.loadRegistry()
		if err != nil {
			return err
		}
		if format == "json" {
			sources := reg.Sources
			if sources == nil {
				sources = []string{}
			}
			return writeJSON(cmd, sources)
		}
		for _, s := range reg.Sources {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

func init() {
	addFormatFlag(sourceListCmd)
	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	sourceCmd.AddCommand(sourceListCmd)
	rootCmd.AddCommand(sourceCmd)
}
