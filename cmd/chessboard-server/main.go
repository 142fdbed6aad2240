// Package main implements the chessboard session server: a RESTful API hosting
// isolated click-driven board sessions with optional SQLite move logs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessboard/cmd/chessboard-server/cli"
	"chessboard/internal/http"
	"chessboard/internal/processor"
	"chessboard/internal/service"
	"chessboard/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	gracefulShutdownTimeout = time.Second * 5
	secretEnv               = "CHESSBOARD_SECRET"
	devSecret               = "dev-secret-minimum-32-characters-long"
)

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	var (
		apiHost      = flag.String("api-host", "localhost", "API server host")
		apiPort      = flag.Int("api-port", 8080, "API server port")
		dev          = flag.Bool("dev", false, "Development mode (relaxed rate limits, fixed token secret, debug logs)")
		storagePath  = flag.String("storage-path", "", "Path to SQLite database file (disables persistence if empty)")
		pidPath      = flag.String("pid", "", "Optional path to write PID file")
		pidLock      = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
		secretPrompt = flag.Bool("secret-prompt", false, "Read the session token secret from the terminal")
	)
	flag.Parse()

	logger, err := newLogger(*dev)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if *pidLock && *pidPath == "" {
		logger.Fatal("-pid-lock flag requires the -pid flag to be set")
	}

	if *pidPath != "" {
		cleanup, err := managePIDFile(*pidPath, *pidLock)
		if err != nil {
			logger.Fatal("failed to manage PID file", zap.Error(err))
		}
		defer cleanup()
		logger.Info("PID file created", zap.String("path", *pidPath), zap.Bool("lock", *pidLock))
	}

	// 1. Initialize Storage (optional)
	var store *storage.Store
	if *storagePath != "" {
		logger.Info("initializing persistent storage", zap.String("path", *storagePath))
		store, err = storage.NewStore(*storagePath, *dev, logger.Named("storage"))
		if err != nil {
			logger.Fatal("failed to initialize storage", zap.Error(err))
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			logger.Fatal("failed to initialize schema", zap.Error(err))
		}
	} else {
		logger.Info("persistent storage disabled (use -storage-path to enable)")
	}

	secret, err := tokenSecret(*dev, *secretPrompt)
	if err != nil {
		logger.Fatal("failed to read token secret", zap.Error(err))
	}

	// 2. Initialize the Service with optional storage
	opts := []service.Option{service.WithLogger(logger.Named("service"))}
	if secret != nil {
		opts = append(opts, service.WithSecret(secret))
	} else {
		logger.Info("session token secret generated (tokens valid until restart)")
	}
	svc, err := service.New(store, opts...)
	if err != nil {
		logger.Fatal("failed to initialize service", zap.Error(err))
	}

	// 3. Initialize the Processor, injecting the service
	proc := processor.New(svc, logger.Named("processor"))

	// 4. Initialize the Fiber App/HTTP Handler, injecting processor and service
	app := http.NewFiberApp(proc, svc, *dev)

	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)

	go func() {
		rate := 10
		if *dev {
			rate = 20
		}
		logger.Info("chessboard API server starting",
			zap.String("addr", "http://"+apiAddr),
			zap.String("version", "v1"),
			zap.Int("rateLimitPerSecond", rate),
			zap.String("storage", svc.StorageHealth()),
			zap.Int("maxSessions", service.MaxSessions))
		logger.Info("endpoints",
			zap.String("sessions", fmt.Sprintf("http://%s/api/v1/sessions", apiAddr)),
			zap.String("health", fmt.Sprintf("http://%s/health", apiAddr)))

		if err := app.Listen(apiAddr); err != nil {
			logger.Error("API server listen error", zap.Error(err))
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err = app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}

	// Releases waiters and closes storage
	if err = svc.Shutdown(gracefulShutdownTimeout); err != nil {
		logger.Warn("service shutdown error", zap.Error(err))
	}

	logger.Info("server exited")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// tokenSecret picks the session token secret: terminal prompt, environment,
// the fixed dev secret, or nil to let the service generate one
func tokenSecret(dev, prompt bool) ([]byte, error) {
	if prompt {
		fmt.Print("Token secret: ")
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return nil, err
		}
		if len(secret) < 32 {
			return nil, fmt.Errorf("secret must be at least 32 bytes")
		}
		return secret, nil
	}
	if env := os.Getenv(secretEnv); env != "" {
		if len(env) < 32 {
			return nil, fmt.Errorf("%s must be at least 32 bytes", secretEnv)
		}
		return []byte(env), nil
	}
	if dev {
		return []byte(devSecret), nil
	}
	return nil, nil
}
