package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wuya51/gmic-buildathon/internal/app"
	"github.com/wuya51/gmic-buildathon/pkg/config"
	"github.com/wuya51/gmic-buildathon/pkg/logger"
	"github.com/wuya51/gmic-buildathon/pkg/shutdown"
)

// set at build time
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	flags, err := config.ParseConfigFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(flags, os.Getenv)
	if err != nil {
		shutdown.Abort("failed to load config", err, flags.DB)
	}

	logger.Init(cfg.Logging.Level)
	defer logger.Sync()
	logger.Info("config_loaded", "addr", cfg.Addr(), "db_path", cfg.Storage.Path, "in_memory", cfg.Storage.InMemory)

	a, err := app.New(cfg, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("failed to initialize app", err, cfg.Storage.Path)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	runErr := a.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	if runErr != nil {
		shutdown.Abort("app run failed", runErr, cfg.Storage.Path)
	}
}
