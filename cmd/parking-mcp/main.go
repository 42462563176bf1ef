package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/truck-parking-mcp/internal/app"
	"github.com/ironsheep/truck-parking-mcp/internal/config"
	"github.com/ironsheep/truck-parking-mcp/internal/logging"
	"github.com/ironsheep/truck-parking-mcp/internal/server"
	"github.com/ironsheep/truck-parking-mcp/internal/tracing"
)

const serviceName = "parking-mcp"

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("%s %s\n", serviceName, Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("parking-mcp - MCP server for truck parking space estimation")
			fmt.Println()
			fmt.Println("Usage: parking-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Configuration is read from ./parking.yaml or ./configs/parking.yaml")
			fmt.Println("and PARKING_* environment variables, for example:")
			fmt.Println("  PARKING_LOG_LEVEL=debug          Enable debug logging")
			fmt.Println("  PARKING_IMAGERY_LAYER=...        WMS layer to fetch")
			fmt.Println("  PARKING_CACHE_BACKEND=valkey     Share fetched tiles through Valkey")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Logs go to stderr (stdout is for MCP protocol)
	log := logging.New(serviceName, Version, cfg.Log.Level, cfg.Log.Format)
	log.Debug().Str("build_time", BuildTime).Str("commit", GitCommit).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanupTracing, err := tracing.Init(ctx, log, serviceName, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer cleanupTracing()

	c, cleanup, err := app.Build(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(c, log, Version)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Debug().Msg("stdin closed, shutting down")
	return nil
}
