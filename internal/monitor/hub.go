// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package monitor

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/gps2mqtt/internal/publish"
)

const (
	writeWait   = 5 * time.Second
	clientQueue = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards are served from other origins on the LAN
	},
}

// hub fans publish updates out to websocket clients. Slow clients lose
// updates instead of stalling the publisher.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  zerolog.Logger
}

type client struct {
	conn *websocket.Conn
	send chan publish.Update
}

func newHub(logger zerolog.Logger) *hub {
	return &hub{clients: make(map[*client]struct{}), logger: logger}
}

func (h *hub) broadcast(u publish.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- u:
		default:
			h.logger.Debug().Str("remote", c.conn.RemoteAddr().String()).Msg("websocket client lagging, update dropped")
		}
	}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// serve upgrades the request, sends the current snapshot and then streams
// updates until the client goes away.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, snapshot func() []publish.Update) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan publish.Update, clientQueue)}
	h.add(c)
	h.logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket client connected")

	go func() {
		// Drain client frames; a read error means the peer left.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(c)
				return
			}
		}
	}()

	defer conn.Close()
	for _, u := range snapshot() {
		if err := h.write(conn, u); err != nil {
			h.remove(c)
			return
		}
	}
	for u := range c.send {
		if err := h.write(conn, u); err != nil {
			h.logger.Debug().Err(err).Msg("websocket write failed")
			h.remove(c)
			return
		}
	}
}

func (h *hub) write(conn *websocket.Conn, u publish.Update) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(u)
}
