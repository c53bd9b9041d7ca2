package backend

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	defaultHealthPath   = "/health"
	defaultReadyTimeout = 10 * time.Second
	pollInterval        = 500 * time.Millisecond
	stopGracePeriod     = 5 * time.Second
)

// ServerManager manages server processes.
type ServerManager struct {
	servers map[string]*ServerProcess
	mu      sync.Mutex
}

// ServerProcess represents a server running process.
type ServerProcess struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	exited chan struct{}
	err    error
}

// ServerConfig defines how to start and check a backend server.
type ServerConfig struct {
	Env          map[string]string
	Name         string
	BinPath      string
	Host         string
	HealthPath   string
	Args         []string
	Port         int
	ReadyTimeout time.Duration
}

// BaseURL returns the loopback URL the server listens on.
func (c ServerConfig) BaseURL() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}

	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

// NewServerManager initializes a ServerManager.
func NewServerManager() *ServerManager {
	return &ServerManager{
		servers: map[string]*ServerProcess{},
	}
}

func serverKey(name string, port int) string {
	return fmt.Sprintf("%s-%d", name, port)
}

// StartServer starts a backend server and blocks until its health endpoint answers 200,
// the process exits, ctx is done, or cfg.ReadyTimeout elapses.
// The process outlives ctx; it runs until StopServer or StopAll.
func (sm *ServerManager) StartServer(ctx context.Context, cfg ServerConfig) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := serverKey(cfg.Name, cfg.Port)
	if _, exists := sm.servers[key]; exists {
		return nil // Already running
	}

	binPath, err := exec.LookPath(cfg.BinPath)
	if err != nil {
		return fmt.Errorf("failed to start %s server: %w", cfg.Name, err)
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, binPath, cfg.Args...)
	cmd.WaitDelay = stopGracePeriod
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	output := &lineLogger{name: cfg.Name}
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start %s server: %w", cfg.Name, err)
	}

	proc := &ServerProcess{
		cmd:    cmd,
		cancel: cancel,
		exited: make(chan struct{}),
	}

	go func() {
		proc.err = cmd.Wait()
		close(proc.exited)
	}()

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = defaultHealthPath
	}

	timeout := cfg.ReadyTimeout
	if timeout == 0 {
		timeout = defaultReadyTimeout
	}

	if err := sm.waitForServer(ctx, proc, cfg.BaseURL()+healthPath, timeout); err != nil {
		cancel()
		<-proc.exited
		return fmt.Errorf("%s server did not become ready: %w", cfg.Name, err)
	}

	sm.servers[key] = proc

	slog.Info("Server started", "name", cfg.Name, "port", cfg.Port, "pid", cmd.Process.Pid)
	return nil
}

// StopServer terminates a backend server.
func (sm *ServerManager) StopServer(name string, port int) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := serverKey(name, port)
	srv, exists := sm.servers[key]
	if !exists {
		return fmt.Errorf("%w: %s", ErrServerNotFound, key)
	}

	srv.stop()
	delete(sm.servers, key)

	slog.Info("Server stopped", "name", name, "port", port)
	return nil
}

// StopAll terminates all running servers.
func (sm *ServerManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, srv := range sm.servers {
		srv.stop()
	}
	sm.servers = map[string]*ServerProcess{}

	slog.Info("All servers stopped")
}

// Running reports whether the named server is still alive.
func (sm *ServerManager) Running(name string, port int) bool {
	sm.mu.Lock()
	srv, exists := sm.servers[serverKey(name, port)]
	sm.mu.Unlock()

	if !exists {
		return false
	}

	select {
	case <-srv.exited:
		return false
	default:
		return true
	}
}

func (p *ServerProcess) stop() {
	p.cancel()
	<-p.exited
}

// waitForServer polls url until it answers 200.
func (sm *ServerManager) waitForServer(ctx context.Context, proc *ServerProcess, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: 1 * time.Second}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-proc.exited:
			if proc.err != nil {
				return fmt.Errorf("%w: %w", ErrServerExited, proc.err)
			}
			return ErrServerExited
		case <-ctx.Done():
			return fmt.Errorf("server failed to respond at %s within %v: %w", url, timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// lineLogger relays server output to the logger line by line.
type lineLogger struct {
	name    string
	pending []byte
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.pending = append(l.pending, p...)
	for {
		i := bytes.IndexByte(l.pending, '\n')
		if i < 0 {
			break
		}
		if line := bytes.TrimRight(l.pending[:i], "\r"); len(line) > 0 {
			slog.Debug("Server output", "name", l.name, "line", string(line))
		}
		l.pending = l.pending[i+1:]
	}

	return len(p), nil
}
