package branchkeeper

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skaphos/branchkeeper/internal/discovery"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan source folders whenever projects or versions change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		reg, err := rt.loadRegistry()
		if err != nil {
			return err
		}
		if len(reg.Sources) == 0 {
			return errors.New("no sources registered (run branchkeeper source add first)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rescan := func() {
			projects, err := scanInto(ctx, reg, rt.cfg.Exclude)
			if err != nil {
				infof(cmd, "warning: scan failed: %v", err)
				return
			}
			if err := rt.saveRegistry(reg); err != nil {
				infof(cmd, "warning: registry not updated: %v", err)
				return
			}
			infof(cmd, "scan completed: %d projects", len(projects))
		}
		rescan()
		infof(cmd, "watching %d sources", len(reg.Sources))
		return discovery.Watch(ctx, reg.Sources, rt.cfg.Exclude, debounce, rescan)
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", discovery.DefaultDebounce, "quiet period before a rescan")
	rootCmd.AddCommand(watchCmd)
}
