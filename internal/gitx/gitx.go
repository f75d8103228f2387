// SPDX-License-Identifier: MIT
// Package gitx provides helpers for executing git commands and parsing
// their output. It shells out to the installed git binary.
package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/skaphos/branchkeeper/internal/credential"
)

// DefaultMaxOutputBytes caps each captured stream of a single command.
const DefaultMaxOutputBytes int64 = 50 << 20

var (
	// ErrWorkdirMissing is returned when the command directory does not exist.
	ErrWorkdirMissing = errors.New("working directory does not exist")
	// ErrOutputLimit is returned when a command produces more output than allowed.
	ErrOutputLimit = errors.New("command output exceeded limit")
)

// Result holds the captured output of one git invocation. It is populated
// even when the command fails.
type Result struct {
	Args   []string
	Stdout string
	Stderr string
}

// Trimmed returns stdout without surrounding whitespace.
func (r Result) Trimmed() string { return strings.TrimSpace(r.Stdout) }

// CommandError is returned for a failed git invocation. It carries stderr so
// callers can classify the failure.
type CommandError struct {
	Dir    string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	cmd := credential.Redact("git " + strings.Join(e.Args, " "))
	stderr := credential.Redact(strings.TrimSpace(e.Stderr))
	if stderr != "" {
		return fmt.Sprintf("%s: %s: %v", cmd, stderr, e.Err)
	}
	return fmt.Sprintf("%s: %v", cmd, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner executes git commands in a given repo directory.
// This interface allows mocking in tests.
type Runner interface {
	// Run executes a git command in dir. A non-nil error is always a
	// *CommandError or wraps ErrWorkdirMissing.
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// GitRunner is the default Runner implementation that shells out to git.
type GitRunner struct {
	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
	// MaxOutputBytes caps stdout and stderr separately. Defaults to
	// DefaultMaxOutputBytes.
	MaxOutputBytes int64
}

// Run executes a git command.
func (g *GitRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	res := Result{Args: append([]string(nil), args...)}
	if strings.TrimSpace(dir) != "" {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return res, &CommandError{Dir: dir, Args: res.Args, Err: fmt.Errorf("%w: %s", ErrWorkdirMissing, dir)}
		}
	}

	bin := g.GitBin
	if bin == "" {
		bin = "git"
	}
	limit := g.MaxOutputBytes
	if limit <= 0 {
		limit = DefaultMaxOutputBytes
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	// Never block on an interactive credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: limit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	if stdout.overflow || stderr.overflow {
		return res, &CommandError{Dir: dir, Args: res.Args, Stderr: res.Stderr, Err: fmt.Errorf("%w (%d bytes)", ErrOutputLimit, limit)}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return res, &CommandError{Dir: dir, Args: res.Args, Stderr: res.Stderr, Err: err}
	}
	return res, nil
}

// cappedBuffer keeps reading past the limit so the child never blocks on a
// full pipe, but records the overflow so the command can be failed.
type cappedBuffer struct {
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	remaining := c.limit - int64(c.buf.Len())
	if remaining <= 0 {
		c.overflow = true
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		c.overflow = true
		c.buf.Write(p[:remaining])
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *cappedBuffer) String() string { return c.buf.String() }

// Stderr extracts the captured stderr from a runner error, if any.
func Stderr(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Stderr
	}
	return ""
}
