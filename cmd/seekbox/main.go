// Package main provides the seekbox terminal viewer.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/seekbox/internal/infra/backend"
	"github.com/osa030/seekbox/internal/infra/config"
	"github.com/osa030/seekbox/internal/infra/logger"
	"github.com/osa030/seekbox/internal/ui/tui"
)

var (
	app        = kingpin.New("seekbox", "seekbox terminal viewer")
	configPath = app.Flag("config", "Path to config file (defaults are used when empty)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: discard)").String()
	backendArg = app.Flag("backend", "Pipeline backend (overrides config)").Enum(config.BackendSim, config.BackendMPV)
	mediaURI   = app.Arg("media", "Media URI or path (overrides config)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// The terminal belongs to the viewer, so logs never go to stdout
	loggerConfig := logger.Config{
		Output: "discard",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if *backendArg != "" {
		cfg.Pipeline.Backend = *backendArg
	}
	if *mediaURI != "" {
		cfg.Media.URI = *mediaURI
	}
	if cfg.Media.URI == "" {
		return fmt.Errorf("no media given")
	}

	sessionMgr, err := backend.NewSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer sessionMgr.Close()

	if err := sessionMgr.Open(context.Background(), cfg.Media.URI); err != nil {
		return fmt.Errorf("failed to open media: %w", err)
	}

	zlog.Info().Msgf("Viewer started: media=%s backend=%s", cfg.Media.URI, cfg.Pipeline.Backend)
	ui := tui.New(sessionMgr)
	if err := ui.Run(); err != nil {
		return fmt.Errorf("viewer error: %w", err)
	}
	zlog.Info().Msg("Viewer stopped")
	return nil
}
