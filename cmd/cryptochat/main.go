package main

import (
	"context"
	"cryptochat/internal"
	"cryptochat/repositories"
	"cryptochat/runtime"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Node terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run keeps every deferred cleanup on the exit path and turns failures into exit codes.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env is fine, the environment alone may carry the configuration
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Node (storage, identity, services, servers)
	node, err := runtime.NewNode(logger, config)
	if err != nil {
		return exitRuntime, err
	}

	// 3. Badger inspector while debugging
	ctx := context.Background()
	if logger.Enabled(ctx, slog.LevelDebug) && config.DebugPort != 0 {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(node.DB(), config.DebugPort, endpoint, repositories.InspectRow)
	}

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Run until a signal, then shut down gracefully
	identity := node.Identity()
	logger.Info("Node identity", "uuid", identity.UUID, "fingerprint", identity.Fingerprint)
	if err := node.Run(ctx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}
