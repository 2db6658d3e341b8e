// SPDX-License-Identifier: GPL-3.0-or-later
//
// Server-side HTTP handling for NDT7 sessions.
//

package ndt7

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/netprobe-dev/aionet/internal/netpipe"
)

// DefaultListenAddr is the server's default bind address.
const DefaultListenAddr = "localhost:8080"

// Handler upgrades /ndt/v7/{download,upload} requests to a WebSocket and
// runs the session machine with the server role; any other path returns
// 404.
type Handler struct {
	MaxDuration time.Duration
	Logger      netpipe.SLogger

	// OnPair is invoked for every (direction, Measurement) pair a session
	// produces, so a caller can feed it into a statistics aggregator.
	OnPair func(conn *websocket.Conn, direction Direction, p Pair)

	upgrader websocket.Upgrader
}

// NewHandler returns a [Handler] ready to be mounted on an [http.ServeMux].
func NewHandler() *Handler {
	return &Handler{
		MaxDuration: DefaultMaxDuration,
		Logger:      netpipe.DefaultSLogger(),
		upgrader: websocket.Upgrader{
			Subprotocols:    []string{Subprotocol},
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  MaxMessageSize,
			WriteBufferSize: MaxMessageSize,
		},
	}
}

// ServeHTTP implements [http.Handler].
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	direction, ok := directionForPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Info("ndt7UpgradeFailed", "path", r.URL.Path, "error", err.Error())
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(r.Context(), h.MaxDuration+5*time.Second)
	defer cancel()

	for p := range handleWebSocket(ctx, conn, direction, RoleServer, h.MaxDuration) {
		if h.OnPair != nil {
			h.OnPair(conn, direction, p)
		}
	}
}

// Mux returns an [http.ServeMux] with download/upload handlers mounted at
// their well-known paths. Any other path falls through to the mux's own
// default 404 behavior.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(downloadPath, h)
	mux.Handle(uploadPath, h)
	return mux
}
