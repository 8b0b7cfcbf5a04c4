// Command car runs one elevator car: the motion/door engine, the
// controller link to the dispatcher, and the heartbeat monitor, all
// sharing one memory-mapped segment with the car's safety supervisor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sebas/elevator-system/internal/banner"
	"github.com/sebas/elevator-system/internal/car"
	"github.com/sebas/elevator-system/internal/floor"
	"github.com/sebas/elevator-system/internal/logger"
	"github.com/sebas/elevator-system/internal/shm"
)

func main() {
	dispatcherAddr := flag.String("dispatcher", "127.0.0.1:3000", "dispatcher address")
	flag.Parse()

	args := flag.Args()
	if len(args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: car <name> <low> <high> <delay_ms>")
		os.Exit(1)
	}

	name := args[0]
	low, err1 := floor.Parse(args[1])
	high, err2 := floor.Parse(args[2])
	delayMs, err3 := strconv.Atoi(args[3])
	if name == "" || err1 != nil || err2 != nil || err3 != nil || low > high || delayMs <= 0 {
		fmt.Fprintln(os.Stderr, "usage: car <name> <low> <high> <delay_ms>")
		os.Exit(1)
	}

	logger.InitLogger(os.Stdout)

	seg, err := shm.Create(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "car: failed to create shared segment: %v\n", err)
		os.Exit(1)
	}
	defer seg.Close()

	seg.Lock()
	seg.SetCurrentFloor(int16(low))
	seg.SetDestinationFloor(int16(low))
	seg.SetStatus(shm.StatusClosed)
	seg.Broadcast()
	seg.Unlock()

	engine := &car.Engine{
		Name:  name,
		Low:   low,
		High:  high,
		Delay: time.Duration(delayMs) * time.Millisecond,
		Seg:   seg,
	}

	banner.Print("Elevator Car", []banner.ConfigLine{
		{Label: "Name", Value: name},
		{Label: "Range", Value: fmt.Sprintf("%s..%s", floor.Format(low), floor.Format(high))},
		{Label: "Delay", Value: engine.Delay.String()},
		{Label: "Dispatcher", Value: *dispatcherAddr},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("car: received signal, shutting down", "signal", sig)
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.RunMotion(gctx) })
	g.Go(func() error { return engine.RunControllerLink(gctx, *dispatcherAddr) })
	g.Go(func() error { return engine.RunHeartbeatMonitor(gctx) })

	if err := g.Wait(); err != nil {
		slog.Error("car: worker exited with error", "error", err)
	}
}
