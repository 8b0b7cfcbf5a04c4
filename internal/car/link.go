package car

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sebas/elevator-system/internal/logger"
	"github.com/sebas/elevator-system/internal/shm"
	"github.com/sebas/elevator-system/internal/wire"
)

// RunControllerLink implements the controller link worker of §4.1: it
// waits for the safety supervisor to be alive and the car to be in normal
// mode, registers with the dispatcher, relays FLOOR commands in and STATUS
// reports out, and disconnects (with a terminal frame) on a mode change to
// individual-service or emergency.
func (e *Engine) RunControllerLink(ctx context.Context, dispatcherAddr string) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		if !e.waitForNormalMode(ctx) {
			return nil
		}

		conn, err := net.DialTimeout("tcp", dispatcherAddr, e.Delay)
		if err != nil {
			logger.Warn("controller link: connect failed, retrying", "car", e.Name, "error", err)
			sleepOrDone(ctx, e.Delay)
			continue
		}

		if err := e.runSession(ctx, conn); err != nil {
			logger.Warn("controller link: session ended", "car", e.Name, "error", err)
		}
		conn.Close()
	}
}

// waitForNormalMode blocks until safety_system >= 1 and the car is in
// neither individual-service nor emergency mode, or ctx is cancelled.
func (e *Engine) waitForNormalMode(ctx context.Context) bool {
	for {
		if err := e.Seg.Lock(); err != nil {
			return false
		}
		ready := e.Seg.SafetySystem() >= 1 && !e.Seg.IndividualServiceMode() && !e.Seg.EmergencyMode()
		if ready {
			e.Seg.Unlock()
			return true
		}
		err := e.Seg.WaitUntil(time.Now().Add(e.Delay))
		e.Seg.Unlock()
		if err != nil {
			return false
		}
		if ctx.Err() != nil {
			return false
		}
	}
}

// runSession owns one TCP connection to the dispatcher: register, then run
// the reader and status-pusher halves concurrently until either one
// decides the session is over.
func (e *Engine) runSession(ctx context.Context, conn net.Conn) error {
	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeMu sync.Mutex
	send := func(text string) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(e.Delay))
		return wire.WriteText(conn, text)
	}

	reg := wire.CarRegistration{Name: e.Name, Low: e.Low, High: e.High}
	if err := send(reg.Format()); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	if err := e.sendStatus(send); err != nil {
		return fmt.Errorf("initial status: %w", err)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- e.readLoop(sessCtx, conn) }()
	go func() { errCh <- e.statusPushLoop(sessCtx, send) }()

	err := <-errCh
	cancel()
	<-errCh
	return err
}

// readLoop waits up to delay_ms for inbound socket readability and parses
// FLOOR commands, writing the destination into the shared segment.
func (e *Engine) readLoop(ctx context.Context, conn net.Conn) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn.SetReadDeadline(time.Now().Add(e.Delay))
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		text := string(payload)
		switch wire.FirstToken(text) {
		case "FLOOR":
			cmd, err := wire.ParseFloorCommand(text)
			if err != nil {
				logger.Warn("controller link: malformed FLOOR frame", "car", e.Name, "error", err)
				continue
			}
			if cmd.Floor < e.Low || cmd.Floor > e.High {
				logger.Warn("controller link: FLOOR out of range, dropped", "car", e.Name, "floor", cmd.Floor)
				continue
			}
			e.Seg.Lock()
			e.Seg.SetDestinationFloor(int16(cmd.Floor))
			e.Seg.SetDestinationChanged(true)
			e.Seg.Broadcast()
			e.Seg.Unlock()
		default:
			logger.Warn("controller link: unrecognised frame, dropped", "car", e.Name, "frame", text)
		}
	}
}

// statusPushLoop watches the segment for local status changes and pushes
// one STATUS frame per change, sending the terminal INDIVIDUAL SERVICE or
// EMERGENCY frame and ending the session when the car leaves normal mode.
func (e *Engine) statusPushLoop(ctx context.Context, send func(string) error) error {
	lastStatus, lastCur, lastDest := e.snapshot()

	for {
		if ctx.Err() != nil {
			return nil
		}

		e.Seg.Lock()
		if e.Seg.IndividualServiceMode() {
			e.Seg.Unlock()
			_ = send(wire.TextIndividualService)
			return nil
		}
		if e.Seg.EmergencyMode() {
			e.Seg.Unlock()
			_ = send(wire.TextEmergency)
			return nil
		}
		err := e.Seg.WaitUntil(time.Now().Add(e.Delay))
		e.Seg.Unlock()
		if err != nil {
			return err
		}

		status, cur, dest := e.snapshot()
		if status != lastStatus || cur != lastCur || dest != lastDest {
			lastStatus, lastCur, lastDest = status, cur, dest
			if err := e.sendStatus(send); err != nil {
				return err
			}
		}
	}
}

func (e *Engine) snapshot() (wire.DoorStatus, int, int) {
	e.Seg.Lock()
	defer e.Seg.Unlock()
	return doorStatusToWire(e.Seg.Status()), int(e.Seg.CurrentFloor()), int(e.Seg.DestinationFloor())
}

func (e *Engine) sendStatus(send func(string) error) error {
	status, cur, dest := e.snapshot()
	report := wire.StatusReport{Status: status, Current: cur, Destination: dest}
	return send(report.Format())
}
