// Command tronserver hosts tronio matches over TCP and WebSocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/brensch/tronio/config"
	"github.com/brensch/tronio/logging"
	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/server"
	"github.com/brensch/tronio/store"
	"github.com/brensch/tronio/transport"
	"github.com/brensch/tronio/world"
)

func main() {
	fs := pflag.NewFlagSet("tronserver", pflag.ExitOnError)
	config.ServerFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.LoadServer(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tronserver:", err)
		os.Exit(2)
	}

	logger, closer, err := logging.Setup(cfg.Log.Options())
	if err != nil {
		fmt.Fprintln(os.Stderr, "tronserver:", err)
		os.Exit(2)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.ServerConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := cfg.Grid.Options()
	if err != nil {
		return err
	}
	settings := cfg.Settings()

	var rec *store.TraceRecorder
	if cfg.Trace.Dir != "" {
		rec, err = store.NewTraceRecorder(cfg.Trace.Dir, "tronserver", cfg.Trace.FlushRounds, logger)
		if err != nil {
			return fmt.Errorf("trace recorder: %w", err)
		}
		settings.Recorder = rec
	}

	hub := world.NewHub(opts, settings, logger)
	srv := transport.NewServer(server.NewHandler(hub, logger), protocol.PollInterval, logger)

	logger.Info("starting tronserver",
		"tcp", cfg.TCPAddr,
		"ws", cfg.WSAddr,
		"status", cfg.StatusAddr,
		"options", opts.String(),
		"tick_rate", cfg.TickRate,
		"difficulty", settings.Difficulty.String(),
		"trace_dir", cfg.Trace.Dir,
	)

	errc := make(chan error, 3)
	var httpServers []*http.Server

	if cfg.TCPAddr != "" {
		ln, err := net.Listen("tcp", cfg.TCPAddr)
		if err != nil {
			return fmt.Errorf("listen tcp: %w", err)
		}
		go func() { errc <- srv.ServeTCP(ctx, ln) }()
	}

	if cfg.WSAddr != "" {
		hs := &http.Server{Addr: cfg.WSAddr, Handler: srv.WebSocketHandler(ctx), ReadHeaderTimeout: 10 * time.Second}
		httpServers = append(httpServers, hs)
		go func() { errc <- listenAndServe(hs) }()
	}

	if cfg.StatusAddr != "" {
		mux := http.NewServeMux()
		status := server.NewStatus(hub)
		if cfg.Trace.Dir != "" {
			idx := store.NewTraceIndex(cfg.Trace.Dir, 10*time.Second)
			defer idx.Close()
			status.WithTraces(idx)
		}
		status.RegisterRoutes(mux)
		hs := &http.Server{Addr: cfg.StatusAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		httpServers = append(httpServers, hs)
		go func() { errc <- listenAndServe(hs) }()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errc:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, hs := range httpServers {
		_ = hs.Shutdown(shutdownCtx)
	}
	srv.Wait()
	hub.Close()

	if rec != nil {
		if err := rec.Close(); err != nil {
			logger.Error("trace recorder close", "error", err)
		}
		logger.Info("traces written", "files", len(rec.Files()), "dropped", rec.Dropped())
	}
	return runErr
}

func listenAndServe(hs *http.Server) error {
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http %s: %w", hs.Addr, err)
	}
	return nil
}
