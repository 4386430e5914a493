package server

import (
	"chat-exchange/contract"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type PeerHandlerConfig struct {
	WriteTimeout   time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

// PeerHandler upgrades HTTP requests to websocket peers and runs their read loop.
type PeerHandler struct {
	log      *slog.Logger
	registry contract.IRegistry
	handler  contract.MessageHandler
	upgrader websocket.Upgrader
	config   PeerHandlerConfig
}

func NewPeerHandler(log *slog.Logger, registry contract.IRegistry, handler contract.MessageHandler,
	config PeerHandlerConfig) *PeerHandler {
	return &PeerHandler{
		log:      log,
		registry: registry,
		handler:  handler,
		config:   config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// No authentication nor origin policy: any client may join.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP blocks for the whole lifetime of the peer.
// Any read error, clean close or not, ends the session and removes the peer.
func (h *PeerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	conn := NewConn(ws, r.RemoteAddr, h.config.WriteTimeout)
	peer := h.registry.Admit(conn)
	defer func() {
		h.registry.Remove(peer.ID)
		_ = conn.Close()
	}()

	if h.config.MaxMessageSize > 0 {
		ws.SetReadLimit(h.config.MaxMessageSize)
	}
	if h.config.PongWait > 0 {
		_ = h.extendReadDeadline(ws)
		ws.SetPongHandler(func(string) error {
			return h.extendReadDeadline(ws)
		})
	}

	ctx := r.Context()
	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("Peer connection lost", "peer", peer.Name, "addr", peer.Addr, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			h.log.Debug("Ignoring non-text frame", "peer", peer.Name, "type", messageType)
			continue
		}
		if err := h.handler.Handle(ctx, peer, string(data)); err != nil {
			h.log.Warn("Message handling failed", "peer", peer.Name, "error", err)
		}
		// Pongs are not read while a command is served.
		if err := h.extendReadDeadline(ws); err != nil {
			return
		}
	}
}

func (h *PeerHandler) extendReadDeadline(ws *websocket.Conn) error {
	if h.config.PongWait <= 0 {
		return nil
	}
	return ws.SetReadDeadline(time.Now().Add(h.config.PongWait))
}
