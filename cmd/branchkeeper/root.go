// SPDX-License-Identifier: MIT
// Package branchkeeper contains the Cobra command tree for the BranchKeeper CLI.
package branchkeeper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skaphos/branchkeeper/internal/config"
	"github.com/skaphos/branchkeeper/internal/engine"
	"github.com/skaphos/branchkeeper/internal/logging"
	"github.com/skaphos/branchkeeper/internal/registry"
	"github.com/skaphos/branchkeeper/internal/sortutil"
)

var (
	// Global flags
	flagVerbose int
	flagQuiet   bool
	flagConfig  string
	flagNoColor bool
	flagYes     bool
	// colorOutputEnabled is set per command execution based on output format and TTY detection.
	colorOutputEnabled bool
	// exitCode tracks the highest severity observed during a command run.
	exitCode int
	// isTerminalFD is overridable in tests.
	isTerminalFD = term.IsTerminal
	// exitFunc is overridable in tests.
	exitFunc = os.Exit
	// engineOptions are appended to every engine the CLI builds. Tests use it
	// to swap the git runner and token source.
	engineOptions []engine.Option
)

var rootCmd = &cobra.Command{
	Use:   "branchkeeper",
	Short: "Keep version folders in sync with one remote branch each",
	Long: "BranchKeeper maps every version folder of a project to a branch of a single remote repository, " +
		"reports drift between them, and publishes local state with one command.",
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// `NO_COLOR` is a standard opt-out and should behave like --no-color.
		if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
			flagNoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase output verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "override config file path")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "answer yes to confirmation prompts")
}

// Execute runs the root command.
func Execute() {
	exitFunc(ExecuteWithExitCode())
}

// ExecuteWithExitCode runs the root command and returns a shell-friendly exit code.
func ExecuteWithExitCode() int {
	exitCode = 0
	colorOutputEnabled = false
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 3
	}
	return exitCode
}

func raiseExitCode(code int) {
	// Keep the highest severity: 0 success, 1 warning, 2 error, 3 fatal.
	if code > exitCode {
		exitCode = code
	}
}

func infof(cmd *cobra.Command, format string, args ...any) {
	if flagQuiet {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func debugf(cmd *cobra.Command, format string, args ...any) {
	if flagQuiet || flagVerbose <= 0 {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "o", "table", "output format: table or json")
}

// outputFormat reads and validates --format, and sets the color mode for it.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "table", "json":
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
	setColorOutputMode(cmd, format)
	return format, nil
}

func setColorOutputMode(cmd *cobra.Command, format string) {
	colorOutputEnabled = shouldUseColorOutput(cmd, format)
}

func shouldUseColorOutput(cmd *cobra.Command, format string) bool {
	if flagNoColor || format != "table" {
		return false
	}
	file, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isTerminalFD(int(file.Fd()))
}

// isInteractive reports whether prompts can be answered on stdin.
func isInteractive(cmd *cobra.Command) bool {
	file, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	return isTerminalFD(int(file.Fd()))
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// cliRuntime bundles what every command resolves before doing work.
type cliRuntime struct {
	cfgPath string
	cfg     *config.Config
	regPath string
}

func loadRuntime(cmd *cobra.Command) (*cliRuntime, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfgPath, err := config.ResolveConfigPath(flagConfig, cwd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}
	debugf(cmd, "using config %s", cfgPath)
	if strings.TrimSpace(cfg.TokenFile) != "" {
		cfg.TokenFile = config.ResolveTokenFile(cfgPath, cfg.TokenFile)
	}
	return &cliRuntime{
		cfgPath: cfgPath,
		cfg:     cfg,
		regPath: config.ResolveRegistryPath(cfgPath, cfg.RegistryPath),
	}, nil
}

func (rt *cliRuntime) logger(cmd *cobra.Command) zerolog.Logger {
	color := false
	if file, ok := cmd.ErrOrStderr().(*os.File); ok && !flagNoColor {
		color = isTerminalFD(int(file.Fd()))
	}
	return logging.New(cmd.ErrOrStderr(), flagVerbose, flagQuiet, color)
}

func (rt *cliRuntime) engine(cmd *cobra.Command) *engine.Engine {
	opts := append([]engine.Option{engine.WithLogger(rt.logger(cmd))}, engineOptions...)
	return engine.New(rt.cfg, opts...)
}

func (rt *cliRuntime) loadRegistry() (*registry.Registry, error) {
	if rt.regPath == "" {
		return &registry.Registry{}, nil
	}
	return registry.LoadOrEmpty(rt.regPath)
}

func (rt *cliRuntime) saveRegistry(reg *registry.Registry) error {
	if rt.regPath == "" {
		return nil
	}
	sortutil.SortRegistryEntries(reg.Entries)
	return registry.Save(reg, rt.regPath)
}

// projectPathArg returns the absolute project path from args[i], defaulting
// to the working directory.
func projectPathArg(args []string, i int) (string, error) {
	path := "."
	if len(args) > i && strings.TrimSpace(args[i]) != "" {
		path = args[i]
	}
	return filepath.Abs(path)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
