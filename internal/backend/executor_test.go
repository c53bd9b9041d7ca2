package backend

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	name     string
	args     []string
	deadline bool
}

func (r *recordingRunner) Run(ctx context.Context, name string, args []string, _ io.Reader) ([]byte, []byte, error) {
	r.name = name
	r.args = args
	_, r.deadline = ctx.Deadline()
	return []byte("ok"), nil, nil
}

func TestExecutor_Execute(t *testing.T) {
	runner := &recordingRunner{}
	exec := NewExecutorWithRunner("/usr/bin/hf", time.Minute, runner)

	stdout, _, err := exec.Execute(context.Background(), []string{"download", "repo"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "ok", string(stdout))
	assert.Equal(t, "/usr/bin/hf", runner.name)
	assert.Equal(t, []string{"download", "repo"}, runner.args)
	assert.True(t, runner.deadline)
	assert.Equal(t, "/usr/bin/hf", exec.BinaryPath())
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, string, []string, io.Reader) ([]byte, []byte, error) {
	return nil, []byte("\n401 Client Error: Unauthorized\nTraceback"), errors.New("exit status 1")
}

func TestExecutor_ExecuteWrapsStderr(t *testing.T) {
	exec := NewExecutorWithRunner("hf", 0, failingRunner{})

	_, stderr, err := exec.Execute(context.Background(), []string{"download"}, nil)
	require.Error(t, err)
	assert.Equal(t, "hf: exit status 1: 401 Client Error: Unauthorized", err.Error())
	assert.Contains(t, string(stderr), "Traceback")
}

func TestNewExecutor_MissingBinary(t *testing.T) {
	_, err := NewExecutor("definitely-not-a-real-binary-7f3a", time.Second)
	assert.Error(t, err)
}

func TestLineLogger_SplitsLines(t *testing.T) {
	l := &lineLogger{name: "worker"}

	n, err := l.Write([]byte("loading\r\npartial"))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, "partial", string(l.pending))

	_, err = l.Write([]byte(" line\n"))
	require.NoError(t, err)
	assert.Empty(t, l.pending)
}

func TestServerManager_StopUnknown(t *testing.T) {
	sm := NewServerManager()
	assert.ErrorIs(t, sm.StopServer("worker", 1), ErrServerNotFound)
	assert.False(t, sm.Running("worker", 1))
}
