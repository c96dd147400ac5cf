package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rfbench/aa30gw/analyzer"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port the analyzer is connected to")
	flag.Int("baud-rate", analyzer.DefaultBaudRate, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	configFile := flag.String("config", "", "Path to a YAML configuration file")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configFile), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	analyzerConfig, err := analyzer.NewConfigBuilder().
		WithDialer(analyzer.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		WithReadTimeout(3 * time.Second).
		WithLogger(logger.With("component", "analyzer")).
		Build()
	if err != nil {
		logger.Error("Failed to create analyzer config", "error", err)
		os.Exit(1)
	}

	session, err := analyzer.Open(analyzerConfig)
	if err != nil {
		logger.Error("Failed to open analyzer session", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting sweep gateway", "version", session.Version())

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:  logger.With("component", "server"),
			Session: session,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Received shutdown signal")

		// Let an in-flight sweep wind down at its next point boundary.
		session.Cancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
	}

	logger.Info("Closing analyzer session")
	if err := session.Close(); err != nil {
		logger.Error("Failed to close analyzer session", "error", err)
	}
}
