package dispatcher

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/sebas/elevator-system/internal/logger"
	"github.com/sebas/elevator-system/internal/wire"
)

// poolCapacity bounds the dispatcher's connection-handler worker pool at
// MAX_CARS + 20, per spec.md §5; a connection arriving once the pool is
// saturated is closed immediately rather than queued.
const poolCapacity = MaxCars + 20

// Server is the dispatcher's TCP listener: a fixed-size car table plus a
// bounded worker pool serving car links and one-shot call-pad requests.
type Server struct {
	Table *Table
	sem   *semaphore.Weighted
}

// NewServer creates a dispatcher server bound to table.
func NewServer(table *Table) *Server {
	return &Server{
		Table: table,
		sem:   semaphore.NewWeighted(poolCapacity),
	}
}

// Serve accepts connections on ln until ctx is cancelled or Accept fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if !s.sem.TryAcquire(1) {
			logger.Warn("dispatcher: worker pool saturated, closing connection", "remote", conn.RemoteAddr())
			conn.Close()
			continue
		}

		go func() {
			defer s.sem.Release(1)
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn reads the first frame to classify the connection as a car
// link or a one-shot call, per §4.2's registration rule. Any other first
// frame, or a parse failure, results in a silent close.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	correlationID := uuid.New().String()

	payload, err := wire.ReadFrame(conn)
	if err != nil {
		return
	}
	text := string(payload)

	switch wire.FirstToken(text) {
	case "CAR":
		reg, err := wire.ParseCarRegistration(text)
		if err != nil {
			logger.Debug("dispatcher: malformed CAR registration, closing", "conn", correlationID, "error", err)
			return
		}
		s.handleCarLink(ctx, conn, reg, correlationID)

	case "CALL":
		call, err := wire.ParseCallRequest(text)
		if err != nil {
			logger.Debug("dispatcher: malformed CALL frame, closing", "conn", correlationID, "error", err)
			return
		}
		s.handleCall(conn, call, correlationID)

	default:
		logger.Debug("dispatcher: unrecognised first frame, closing", "conn", correlationID)
	}
}

// handleCarLink registers the car and serves its long-lived link until the
// connection closes or the car reports INDIVIDUAL SERVICE/EMERGENCY.
func (s *Server) handleCarLink(ctx context.Context, conn net.Conn, reg wire.CarRegistration, correlationID string) {
	rec, err := s.Table.Register(reg.Name, reg.Low, reg.High, conn)
	if err != nil {
		logger.Warn("dispatcher: registration failed", "conn", correlationID, "car", reg.Name, "error", err)
		return
	}
	defer s.Table.Unregister(reg.Name)

	logger.Info("dispatcher: car registered", "car", reg.Name, "low", reg.Low, "high", reg.High)

	for {
		if ctx.Err() != nil {
			return
		}

		payload, err := wire.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("dispatcher: car link read error", "car", reg.Name, "error", err)
			}
			return
		}
		text := string(payload)

		switch text {
		case wire.TextIndividualService:
			logger.Info("dispatcher: car entered individual service", "car", reg.Name)
			return
		case wire.TextEmergency:
			logger.Warn("dispatcher: car entered emergency mode", "car", reg.Name)
			return
		}

		if wire.FirstToken(text) != "STATUS" {
			logger.Debug("dispatcher: unexpected frame on car link, dropped", "car", reg.Name, "frame", text)
			continue
		}
		status, err := wire.ParseStatusReport(text)
		if err != nil {
			logger.Debug("dispatcher: malformed STATUS frame, dropped", "car", reg.Name, "error", err)
			continue
		}

		nextFloor, shouldSend := s.Table.UpdateStatus(reg.Name, status.Status, status.Current, status.Destination)
		if shouldSend {
			cmd := wire.FloorCommand{Floor: nextFloor}
			if err := rec.send(cmd.Format()); err != nil {
				logger.Warn("dispatcher: failed to send FLOOR to car", "car", reg.Name, "error", err)
				return
			}
		}
	}
}

// handleCall assigns src/dst to the best candidate car (or replies
// UNAVAILABLE) and exits; call-pad connections are one-shot.
func (s *Server) handleCall(conn net.Conn, call wire.CallRequest, correlationID string) {
	rec, newHead, headChanged, ok := s.Table.AssignCall(call.Src, call.Dst)
	if !ok {
		logger.Info("dispatcher: no car available", "conn", correlationID, "src", call.Src, "dst", call.Dst)
		_ = wire.WriteText(conn, wire.TextUnavailable)
		return
	}

	assigned := wire.CarAssigned{Name: rec.Name}
	if err := wire.WriteText(conn, assigned.Format()); err != nil {
		logger.Warn("dispatcher: failed to reply to call-pad", "conn", correlationID, "error", err)
		return
	}
	logger.Info("dispatcher: assigned call", "car", rec.Name, "src", call.Src, "dst", call.Dst)

	if headChanged {
		cmd := wire.FloorCommand{Floor: newHead}
		if err := rec.send(cmd.Format()); err != nil {
			logger.Warn("dispatcher: failed to push FLOOR after assignment", "car", rec.Name, "error", err)
		}
	}
}
