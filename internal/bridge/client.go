package bridge

import (
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 5 * time.Second
	maxClientFrame = 64 * 1024
)

// Client is one browser connection. read pushes browser input into the hub;
// write drains send so a slow browser never blocks the hub loop.
type Client struct {
	id     string
	hub    *Hub
	socket *websocket.Conn
	send   chan []byte
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) read() {
	defer func() {
		c.hub.leave(c)
		_ = c.socket.Close()
	}()
	c.socket.SetReadLimit(maxClientFrame)

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("client_id", c.id).Msg("bridge.Client.read failed")
			}
			return
		}
		if err := c.hub.HandleLocal(string(data)); err != nil {
			log.Warn().Err(err).Str("client_id", c.id).Str("payload", string(data)).Msg("bridge.Client.read browser message dropped")
		}
	}
}

func (c *Client) write() {
	defer c.socket.Close()

	for message := range c.send {
		_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Debug().Err(err).Str("client_id", c.id).Msg("bridge.Client.write failed")
			return
		}
	}
	_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// newUpgrader accepts same-host requests, requests without an Origin header,
// and the configured origins ("*" allows any).
func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
				return true
			}
			return slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}
}

// ServeWS upgrades the request and attaches the browser to the hub. The
// current display list is sent first when the engine keeps one.
func (h *Hub) ServeWS(upgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request) {
	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("bridge.Hub.ServeWS upgrade failed")
		return
	}

	c := &Client{
		id:     uuid.NewString(),
		hub:    h,
		socket: socket,
		send:   make(chan []byte, h.sendBuffer),
	}
	if err := h.join(c); err != nil {
		_ = socket.Close()
		return
	}

	go c.read()
	go c.write()
}
