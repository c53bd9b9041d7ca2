package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/backend/chatterbox"
	"github.com/ekisa-team/chatterbox-serve/internal/config"
	"github.com/ekisa-team/chatterbox-serve/internal/device"
	"github.com/ekisa-team/chatterbox-serve/internal/env"
	"github.com/ekisa-team/chatterbox-serve/internal/logger"
	"github.com/ekisa-team/chatterbox-serve/internal/model"
	grpcserver "github.com/ekisa-team/chatterbox-serve/internal/server/grpc"
	httpserver "github.com/ekisa-team/chatterbox-serve/internal/server/http"
	"github.com/ekisa-team/chatterbox-serve/internal/service"
)

const shutdownTimeout = 30 * time.Second

var version = "dev"

func main() {
	var (
		flagConfigPath        = flag.String("config", filepath.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
		flagEnvFile           = flag.String("env-file", ".env", "Path to a dotenv file loaded before reading the environment")
		flagExitOnLoadFailure = flag.Bool("exit-on-load-failure", false, "Exit when the model fails to load instead of staying up unhealthy")
	)
	flag.Parse()

	envFileErr := godotenv.Load(*flagEnvFile)

	cfg, err := config.Load(*flagConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(
		logger.New(env.FromEnv(),
			logger.WithLogToFile(cfg.Logging.File != ""),
			logger.WithLogFile(cfg.Logging.File),
		),
	)

	if envFileErr != nil && !errors.Is(envFileErr, os.ErrNotExist) {
		slog.Warn("Failed to load env file", "path", *flagEnvFile, "error", envFileErr)
	}

	if *flagExitOnLoadFailure {
		cfg.Model.ExitOnLoadFailure = true
	}

	if err := run(cfg, *flagConfigPath); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverManager := backend.NewServerManager()
	defer serverManager.StopAll()

	backends := backend.NewRegistry()
	defer func() {
		if err := backends.Close(); err != nil {
			slog.Warn("Failed to close backends", "error", err)
		}
	}()

	if err := backends.Register(chatterbox.NewBackend(chatterbox.ConfigFromOptions(cfg.Model.Options), serverManager)); err != nil {
		return fmt.Errorf("failed to register backend: %w", err)
	}

	b, ok := backends.Get(backend.BackendProvider(cfg.Model.Backend))
	if !ok {
		return fmt.Errorf("%w: %s", backend.ErrBackendNotFound, cfg.Model.Backend)
	}

	runner := backend.ExecCommandRunner{}
	registry := model.NewRegistry()
	manager := model.NewManager(
		registry,
		device.NewSelector(runner, device.ParsePreference(cfg.Model.Device)),
		model.NewLoader(b, cfg.Model.Architecture, cfg.Model.Checkpoint.RequiredFiles),
		runner,
	)

	tts := service.NewTTS(registry, service.LimitsFromConfig(cfg.Limits))

	serveErr := make(chan error, 2)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := httpserver.New(addr, version, tts, registry)
	go func() {
		serveErr <- httpServer.Serve(lis)
	}()

	var grpcServer *grpcserver.HealthServer
	if cfg.Server.GRPCPort > 0 {
		grpcAddr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.GRPCPort))
		grpcLis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", grpcAddr, err)
		}

		grpcServer = grpcserver.NewHealthServer(registry)
		go func() {
			serveErr <- grpcServer.Serve(grpcLis)
		}()
	}

	if _, err := os.Stat(configPath); err == nil {
		watcher, err := config.NewWatcher(configPath, cfg, func(next *config.Config, err error) {
			if err != nil {
				return
			}
			tts.SetLimits(service.LimitsFromConfig(next.Limits))
		})
		if err != nil {
			slog.Warn("Config hot reload disabled", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	loadFailed := make(chan error, 1)
	go func() {
		if err := manager.Load(ctx, cfg); err != nil && cfg.Model.ExitOnLoadFailure {
			loadFailed <- err
		}
	}()

	slog.Info("Chatterbox server started", "version", version, "addr", addr, "grpc_port", cfg.Server.GRPCPort)

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	case err := <-loadFailed:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}

	return runErr
}
