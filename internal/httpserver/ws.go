// internal/httpserver/ws.go
//
// WebSocket stepping: one connection drives one session without an HTTP
// round trip per step.
//
// Messages in:  {"type":"reset"|"step"|"spec"|"ping", "id":"...", "action":N}
// Messages out: {"type":"timestep"|"spec"|"pong"|"error", "id":"...", "payload":..., "error":"..."}

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/woodoku-env/internal/env"
	"github.com/robalobadob/woodoku-env/internal/store"
)

// wsMessage is a client request.
type wsMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Action *int   `json:"action,omitempty"`
}

// wsResponse is a server reply.
type wsResponse struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// wsClient is one connected socket bound to a session.
type wsClient struct {
	srv      *Server
	sess     *store.Session
	conn     *websocket.Conn
	sendChan chan wsResponse
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == s.cfg.ClientOrigin
		},
	}
}

// handleWebSocket authenticates before upgrading so failures are plain HTTP.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, code := s.authenticate(r)
	if sess == nil {
		http.Error(w, `{"error":"`+code+`"}`, http.StatusUnauthorized)
		return
	}
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("websocket upgrade")
		return
	}
	log.Debug().Str("session", sess.ID).Msg("websocket connected")

	c := &wsClient{srv: s, sess: sess, conn: conn, sendChan: make(chan wsResponse, 256)}
	go c.writePump()
	c.readPump(context.WithoutCancel(r.Context()))
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *wsClient) readPump(ctx context.Context) {
	defer func() { close(c.sendChan); c.conn.Close() }()
	for {
		var msg wsMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session", c.sess.ID).Msg("websocket read")
			}
			return
		}
		c.sendChan <- c.handleMessage(ctx, msg)
	}
}

func (c *wsClient) handleMessage(ctx context.Context, msg wsMessage) wsResponse {
	switch msg.Type {
	case "reset":
		return wsResponse{Type: "timestep", ID: msg.ID, Payload: c.srv.reset(c.sess)}
	case "step":
		if msg.Action == nil {
			return wsResponse{Type: "error", ID: msg.ID, Error: "missing_action"}
		}
		res, err := c.srv.step(ctx, c.sess, *msg.Action)
		switch {
		case errors.Is(err, env.ErrActionOutOfRange):
			return wsResponse{Type: "error", ID: msg.ID, Error: "action_out_of_range"}
		case err != nil:
			return wsResponse{Type: "error", ID: msg.ID, Error: "engine_error"}
		}
		return wsResponse{Type: "timestep", ID: msg.ID, Payload: res}
	case "spec":
		return wsResponse{Type: "spec", ID: msg.ID, Payload: c.srv.spec(c.sess)}
	case "ping":
		return wsResponse{Type: "pong", ID: msg.ID}
	default:
		return wsResponse{Type: "error", ID: msg.ID, Error: "unknown message type"}
	}
}
