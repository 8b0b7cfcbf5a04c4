// Command dispatcher runs the central dispatcher: the fixed-size car
// table, the insertion scheduler, and the TCP listener serving both car
// links and call-pad requests, per spec.md §4.2.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sebas/elevator-system/internal/banner"
	"github.com/sebas/elevator-system/internal/dispatcher"
	"github.com/sebas/elevator-system/internal/dispatcherconfig"
	"github.com/sebas/elevator-system/internal/logger"
)

func main() {
	cfg := dispatcherconfig.Load()
	logger.InitLogger(os.Stdout)
	logger.SetLevel(cfg.LogLevel)

	addr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dispatcher: failed to listen on %s: %v\n", addr, err)
		os.Exit(1)
	}

	banner.Print("Elevator Dispatcher", []banner.ConfigLine{
		{Label: "Listen", Value: addr},
		{Label: "MaxCars", Value: fmt.Sprintf("%d", dispatcher.MaxCars)},
		{Label: "MaxQueueDepth", Value: fmt.Sprintf("%d", dispatcher.MaxQueueDepth)},
	})

	table := dispatcher.NewTable()
	srv := dispatcher.NewServer(table)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("dispatcher: received signal, shutting down", "signal", sig)
		cancel()
	}()

	slog.Info("dispatcher: accepting connections", "addr", addr)
	if err := srv.Serve(ctx, ln); err != nil {
		slog.Error("dispatcher: serve error", "error", err)
		os.Exit(1)
	}
}
