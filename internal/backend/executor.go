package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const killGracePeriod = 2 * time.Second

// CommandRunner runs a command to completion and captures its output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error)
}

// ExecCommandRunner runs commands with os/exec.
type ExecCommandRunner struct{}

// Run implements CommandRunner. The process is killed when ctx is done.
func (ExecCommandRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGracePeriod

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Executor invokes one tool with a per-call deadline.
type Executor struct {
	runner  CommandRunner
	binary  string
	timeout time.Duration
}

// NewExecutor resolves binary on PATH and runs it with os/exec.
func NewExecutor(binary string, timeout time.Duration) (*Executor, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("binary not found: %w", err)
	}

	return NewExecutorWithRunner(path, timeout, ExecCommandRunner{}), nil
}

// NewExecutorWithRunner creates an executor that delegates to runner. binary is passed through unresolved.
func NewExecutorWithRunner(binary string, timeout time.Duration, runner CommandRunner) *Executor {
	return &Executor{
		runner:  runner,
		binary:  binary,
		timeout: timeout,
	}
}

// Execute runs the tool with args. A failed run is reported with the first line of stderr.
func (e *Executor) Execute(ctx context.Context, args []string, stdin io.Reader) (stdout, stderr []byte, err error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	stdout, stderr, err = e.runner.Run(ctx, e.binary, args, stdin)
	if err != nil {
		if line := firstLine(stderr); line != "" {
			err = fmt.Errorf("%s: %w: %s", e.binary, err, line)
		} else {
			err = fmt.Errorf("%s: %w", e.binary, err)
		}
	}

	return stdout, stderr, err
}

// BinaryPath returns the tool the executor runs.
func (e *Executor) BinaryPath() string {
	return e.binary
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}

	return s
}
