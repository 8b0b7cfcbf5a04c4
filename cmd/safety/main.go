// Command safety runs the independent safety supervisor for one car,
// attaching to its shared segment and enforcing spec invariants until
// signalled, per spec.md §4.3.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sebas/elevator-system/internal/banner"
	"github.com/sebas/elevator-system/internal/logger"
	"github.com/sebas/elevator-system/internal/safety"
	"github.com/sebas/elevator-system/internal/shm"
)

func main() {
	args := os.Args[1:]
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(os.Stderr, "usage: safety <name>")
		os.Exit(1)
	}
	name := args[0]

	logger.InitLogger(os.Stdout)

	seg, err := shm.Open(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "safety: failed to attach to shared segment: %v\n", err)
		os.Exit(1)
	}
	defer seg.Close()

	banner.Print("Elevator Safety Supervisor", []banner.ConfigLine{
		{Label: "Car", Value: name},
	})

	sup := &safety.Supervisor{Name: name, Seg: seg}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("safety: received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := sup.Run(ctx); err != nil {
		slog.Error("safety: supervisor exited with error", "car", name, "error", err)
		os.Exit(1)
	}
}
