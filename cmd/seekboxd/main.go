// Package main provides the seekbox daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"gopkg.in/yaml.v3"

	apiconnect "github.com/osa030/seekbox/internal/api/connect"
	"github.com/osa030/seekbox/internal/infra/backend"
	"github.com/osa030/seekbox/internal/infra/config"
	"github.com/osa030/seekbox/internal/infra/logger"
)

var (
	app        = kingpin.New("seekboxd", "seekbox playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/seekbox.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	mediaURI   = app.Flag("media", "Media to open at startup (overrides config)").String()

	// check-config command
	checkConfigCmd = app.Command("check-config", "Validate the config file, print it and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
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

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	if *mediaURI != "" {
		cfg.Media.URI = *mediaURI
	}

	if command == checkConfigCmd.FullCommand() {
		printable := *cfg
		if printable.Server.ControlToken != "" {
			printable.Server.ControlToken = "********"
		}
		out, err := yaml.Marshal(&printable)
		if err != nil {
			zlog.Fatal().Msgf("Failed to render config: %v", err)
		}
		fmt.Print(string(out))
		return
	}

	// Run server (defer ensures shutdown hook is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	sessionMgr, err := backend.NewSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer sessionMgr.Close()

	if cfg.Media.URI != "" {
		if err := sessionMgr.Open(ctx, cfg.Media.URI); err != nil {
			return fmt.Errorf("failed to open media: %w", err)
		}
	} else {
		zlog.Info().Msg("No media configured, waiting for Open requests")
	}

	if cfg.Server.ControlToken == "" {
		zlog.Warn().Msg("Control token not set, RPC calls are not authenticated")
	}

	mux := http.NewServeMux()
	path, handler := apiconnect.NewTransportServiceHandler(
		apiconnect.NewTransportService(sessionMgr),
		connect.WithInterceptors(apiconnect.NewControlAuthInterceptor(cfg.Server.ControlToken)),
	)
	mux.Handle(path, handler)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Give the listener a moment before running startup hooks
	select {
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	case <-time.After(100 * time.Millisecond):
	}
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case <-sessionMgr.Done():
		zlog.Info().Msg("Session ended, shutting down...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the session first so watch streams return
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}
	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
