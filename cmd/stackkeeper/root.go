// Package stackkeeper contains the Cobra command tree for the
// StackKeeper CLI.
package stackkeeper

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skaphos/stackkeeper/internal/commands"
	"github.com/skaphos/stackkeeper/internal/logging"
	"github.com/skaphos/stackkeeper/internal/state"
)

var (
	// Global flags
	flagDir        string
	flagAppVersion string
	flagForce      bool
	flagVerbose    int
	flagQuiet      bool
	flagNoColor    bool
	// colorOutputEnabled is set per command execution based on TTY detection.
	colorOutputEnabled bool
	// exitCode is the code the process will exit with.
	exitCode int
	// isTerminalFD is overridable in tests.
	isTerminalFD = term.IsTerminal
	// exitFunc is overridable in tests.
	exitFunc = os.Exit
)

var rootCmd = &cobra.Command{
	Use:   "stackkeeper",
	Short: "Versioned, templated deployment configuration manager",
	Long: "StackKeeper keeps a deployment's configuration in a versioned repository,\n" +
		"renders templates into a generated tree and drives the container\n" +
		"orchestrator against it. Commands are gated on the configuration state,\n" +
		"so a half-applied or out-of-date directory cannot be started by accident.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// `NO_COLOR` is a standard opt-out and should behave like --no-color.
		if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
			flagNoColor = true
		}
		colorOutputEnabled = shouldUseColorOutput(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", os.Getenv("STACKKEEPER_DIR"), "configuration directory")
	rootCmd.PersistentFlags().StringVar(&flagAppVersion, "app-version", "", "override the application version (testing and recovery)")
	rootCmd.PersistentFlags().BoolVar(&flagForce, "force", false, "override blocked-unless-forced state gates")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase output verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	_ = rootCmd.PersistentFlags().MarkHidden("app-version")
}

// Execute runs the root command.
func Execute() {
	exitFunc(ExecuteWithExitCode())
}

// ExecuteWithExitCode runs the root command and returns a
// shell-friendly exit code: zero on success, one on any failure.
func ExecuteWithExitCode() int {
	exitCode = 0
	colorOutputEnabled = false
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return exitCode
}

// newLogger builds the process logger from the verbosity flags.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch {
	case flagQuiet:
		level = slog.LevelError
	case flagVerbose == 1:
		level = slog.LevelDebug
	case flagVerbose >= 2:
		level = logging.LevelTrace
	}
	return logging.New(os.Stderr, level)
}

// appVersion resolves the effective application version.
func appVersion() string {
	if flagAppVersion != "" {
		return flagAppVersion
	}
	return Version
}

// newContext assembles the per-invocation command context.
func newContext(cmd *cobra.Command) *commands.Context {
	return &commands.Context{
		Dir:          flagDir,
		AppVersion:   appVersion(),
		Force:        flagForce,
		ColorEnabled: colorOutputEnabled,
		Out:          cmd.OutOrStdout(),
		Err:          cmd.ErrOrStderr(),
		In:           interactiveStdin(),
		Log:          newLogger(),
	}
}

// interactiveStdin returns os.Stdin only when it is a terminal, so
// forced downgrades prompt a human but never hang on piped input.
func interactiveStdin() io.Reader {
	if isTerminalFD(int(os.Stdin.Fd())) {
		return os.Stdin
	}
	return nil
}

// dispatch verifies and runs command through the shared table, folding
// the handler outcome into the process exit code.
func dispatch(cmd *cobra.Command, command state.Command, args []string, mutate func(c *commands.Context)) error {
	c := newContext(cmd)
	if mutate != nil {
		mutate(c)
	}
	if code := commands.Dispatch(cmd.Context(), c, command, args); code > exitCode {
		exitCode = code
	}
	return nil
}

func shouldUseColorOutput(cmd *cobra.Command) bool {
	if flagNoColor {
		return false
	}
	file, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isTerminalFD(int(file.Fd()))
}
