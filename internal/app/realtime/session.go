/*
This file defines the Session struct, one authenticated WebSocket connection.
It manages the connection lifecycle, the read and write pumps, and delivery
of outbound events queued by the Hub.
*/
package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"swapyard/internal/app/market"
	"swapyard/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// sendChannelBuffer is the per-session outbound queue size.
	sendChannelBuffer = 256

	// WsCloseCodeSessionReplaced is a custom WebSocket close code (4000-4999
	// range) signaling that the session was replaced by a newer connection
	// for the same user.
	WsCloseCodeSessionReplaced = 4001
)

// Session represents one live WebSocket connection bound to a user identity.
type Session struct {
	hub  *Hub
	conn *websocket.Conn
	user market.UserRef

	// send queues marshaled events waiting to be written to the connection.
	send chan []byte

	// closeOnce guards against double-closing the send channel when a kick
	// races the normal disconnect path.
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewSession constructs a Session for an authenticated user.
func NewSession(hub *Hub, conn *websocket.Conn, user market.UserRef) *Session {
	sessionLogger := logx.Logger().With().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Logger()

	return &Session{
		hub:    hub,
		conn:   conn,
		user:   user,
		send:   make(chan []byte, sendChannelBuffer),
		logger: sessionLogger,
	}
}

// UserID returns the connected user's account id.
func (s *Session) UserID() int64 {
	return s.user.ID
}

// Username returns the connected user's handle.
func (s *Session) Username() string {
	return s.user.Username
}

// Send marshals an envelope and queues it for delivery. A full queue drops
// the event rather than blocking the hub loop.
func (s *Session) Send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		s.logger.Error().Err(err).Str("event", env.Event).Msg("Error marshaling outbound event")
		return err
	}

	select {
	case s.send <- data:
		return nil
	default:
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Session send channel full, dropping event")
		return fmt.Errorf("session send queue full")
	}
}

// ReadPump reads frames from the connection and dispatches them to the hub.
// It handles heartbeats (Pong) and performs cleanup when the connection closes.
func (s *Session) ReadPump() {
	defer s.cleanupOnDisconnect()

	s.conn.SetReadLimit(maxEventBytes)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Error reading event (client close/going away)")
			}
			break
		}

		s.hub.Dispatch(s, raw)
	}
}

// cleanupOnDisconnect detaches the session from the hub and closes the connection.
func (s *Session) cleanupOnDisconnect() {
	s.logger.Info().Msg("Session cleanup starting.")

	s.hub.Unregister(s)

	if err := s.conn.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Session connection close error")
	}
}

// WritePump writes queued events to the connection and keeps the heartbeat alive.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Session connection close error in WritePump")
		}
	}()

	for {
		select {
		case data, ok := <-s.send:
			if !s.writeQueued(data, ok) {
				return
			}

		case <-ticker.C:
			if !s.writePing() {
				return
			}
		}
	}
}

// writeQueued writes one queued frame. Returns false when the pump should terminate.
func (s *Session) writeQueued(data []byte, ok bool) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			s.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error().Err(err).Msg("Error writing event")
		return false
	}

	return true
}

// writePing sends a periodic Ping frame. Returns false on write failure.
func (s *Session) writePing() bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		s.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// Kick closes the session by sending a close frame with code 4001 and
// shutting the send queue, which terminates the write pump.
func (s *Session) Kick(reason string) {
	s.logger.Warn().
		Int("close_code", WsCloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Kicking session.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionReplaced, reason)

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := s.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send close frame during kick.")
	}

	s.closeOnce.Do(func() {
		close(s.send)
	})
}
