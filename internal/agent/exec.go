package agent

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/vibecli/vibe/internal/platform"
)

// DefaultCommandTimeout bounds a single shell command.
const DefaultCommandTimeout = 5 * time.Minute

// maxCapturedOutput caps stdout and stderr independently before they are
// fed back into the conversation.
const maxCapturedOutput = 2000

// ErrCommandTimeout marks a command killed by the deadline.
var ErrCommandTimeout = errors.New("command timed out")

// ExecResult captures one shell command run.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes shell commands through the platform shell with a
// deadline and auto-answered prompts.
type Runner struct {
	Timeout time.Duration
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultCommandTimeout
}

// Run executes command in dir, returning captured output. The command
// gets "y\n" on stdin so simple prompts do not hang it. A deadline
// overrun returns ErrCommandTimeout alongside whatever output was
// captured.
func (r *Runner) Run(ctx context.Context, command, dir string) (*ExecResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	var cmd *exec.Cmd
	if platform.IsWindows {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader("y\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &ExecResult{
		Stdout: truncateOutput(stdout.String()),
		Stderr: truncateOutput(stderr.String()),
	}

	if ctx.Err() == context.DeadlineExceeded {
		return res, ErrCommandTimeout
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

func truncateOutput(s string) string {
	if len(s) <= maxCapturedOutput {
		return s
	}
	return s[:maxCapturedOutput] + "\n... (output truncated)"
}
