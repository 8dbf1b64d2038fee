package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"facet/internal/api"
	"facet/internal/logging"
	"facet/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 << 10,
	WriteBufferSize: 32 << 10,
	// The dashboard and capture clients are same-deployment tools; the
	// bearer token is the real gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteDeadline = 10 * time.Second
	wsReadLimit     = maxFrameBytes
)

// handleFrameSocket streams frames over a websocket: every binary message
// is one captured frame, answered with the same JSON payload as the
// multipart endpoint. The socket closes once the session stops accepting
// frames.
func (s *Server) handleFrameSocket(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if _, err := s.requireOwner(r, id); err != nil {
		s.writeError(w, err, nil)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	frameSeq := 0
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("frame socket closed",
					logging.Int64(logging.FieldSessionID, id),
					logging.Error(err))
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		frameSeq++

		outcome, err := s.machine.ProcessFrame(r.Context(), id, payload,
			fmt.Sprintf("ws-frame-%d.jpg", frameSeq), time.Now())
		if err != nil {
			if writeErr := s.writeSocketError(conn, err); writeErr != nil {
				return
			}
			// A closed session ends the stream; transient detector
			// failures just drop the frame and keep reading.
			if errors.Is(err, services.ErrInvalidState) || errors.Is(err, services.ErrNotFound) {
				return
			}
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
		if err := conn.WriteJSON(api.FrameResponse{
			Session: api.FromSession(outcome.Session),
			Scan:    api.FromScan(outcome.Scan),
		}); err != nil {
			return
		}
	}
}

func (s *Server) writeSocketError(conn *websocket.Conn, err error) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return conn.WriteJSON(api.ErrorResponse{
		Error: err.Error(),
		Code:  services.Code(err),
	})
}
