// Command tronclient is the terminal client. Two players can share one
// keyboard: wasd + space and arrows + enter.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/brensch/tronio/config"
	"github.com/brensch/tronio/logging"
	"github.com/brensch/tronio/transport"
	"github.com/brensch/tronio/tui"
	"github.com/brensch/tronio/world"
)

func main() {
	fs := pflag.NewFlagSet("tronclient", pflag.ExitOnError)
	config.ClientFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.LoadClient(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tronclient:", err)
		os.Exit(2)
	}

	// The terminal belongs to the renderer; logs only go to the file.
	logOpts := cfg.Log.Options()
	logOpts.Quiet = true
	logger, closer, err := logging.Setup(logOpts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tronclient:", err)
		os.Exit(2)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	dial, target, err := dialer(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tronclient:", err)
		os.Exit(2)
	}

	final, err := tea.NewProgram(tui.New(dial, cfg.Name, target, logger), tea.WithAltScreen()).Run()
	if m, ok := final.(tui.Model); ok {
		_ = m.Close()
		if m.Err() != nil {
			fmt.Fprintln(os.Stderr, "tronclient:", m.Err())
		}
	}
	if err != nil {
		logger.Error("tui stopped", "error", err)
		os.Exit(1)
	}
}

func dialer(cfg config.ClientConfig, logger *slog.Logger) (tui.Dialer, string, error) {
	switch cfg.Transport {
	case config.TransportLocal:
		opts, err := cfg.Grid.Options()
		if err != nil {
			return nil, "", err
		}
		return func(context.Context) (world.Transport, error) {
			return world.NewLocal(opts, cfg.Settings(), logger), nil
		}, "local " + opts.String(), nil
	case config.TransportTCP:
		return func(ctx context.Context) (world.Transport, error) {
			c, err := transport.DialTCP(ctx, cfg.Addr, logger)
			if err != nil {
				return nil, err
			}
			return world.NewOnline(c, logger), nil
		}, cfg.Addr, nil
	case config.TransportWS:
		url := cfg.Addr
		if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
			url = "ws://" + url
		}
		return func(ctx context.Context) (world.Transport, error) {
			c, err := transport.DialWebSocket(ctx, url, logger)
			if err != nil {
				return nil, err
			}
			return world.NewOnline(c, logger), nil
		}, url, nil
	}
	return nil, "", fmt.Errorf("unknown transport %q", cfg.Transport)
}
