package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/danmuck/sketchnet/internal/canvas"
	"github.com/danmuck/sketchnet/internal/peer"
	"github.com/danmuck/sketchnet/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrHubClosed       = errors.New("bridge: hub closed")
	ErrUnsupportedKind = errors.New("bridge: unsupported browser message kind")
)

const (
	EventChat     = "chat"
	EventClear    = "clear"
	EventDraw     = "draw"
	EventSnapshot = "snapshot"

	defaultSendBuffer = 64
	defaultBacklog    = 256
)

// Event is one JSON frame pushed to browsers.
type Event struct {
	Kind   string               `json:"kind"`
	Sender string               `json:"sender,omitempty"`
	Text   string               `json:"text,omitempty"`
	Action *protocol.DrawAction `json:"action,omitempty"`
	Ops    []canvas.Op          `json:"ops,omitempty"`
}

// Relay carries browser-originated payloads to peers. *peer.Broadcaster
// satisfies it.
type Relay interface {
	Broadcast(payload string) int
	BroadcastChat(text string) int
}

// Snapshotter is implemented by engines that can report their display list.
type Snapshotter interface {
	Ops() []canvas.Op
}

type HubConfig struct {
	// Name is the local display name used as sender for browser input.
	Name   string
	Engine peer.Engine
	Chat   peer.ChatSink
	// SendBuffer is the per-client queue; a client that falls this far behind
	// is dropped.
	SendBuffer int
}

// Hub sits between the peer dispatcher and the drawing engine. It satisfies
// peer.Engine and peer.ChatSink so remote activity is applied locally and then
// mirrored to every browser.
type Hub struct {
	name       string
	engine     peer.Engine
	chat       peer.ChatSink
	sendBuffer int

	relayMu sync.RWMutex
	relay   Relay

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	running    atomic.Bool
	count      atomic.Int64
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if cfg.Engine == nil {
		cfg.Engine = canvas.NewBoard()
	}
	return &Hub{
		name:       cfg.Name,
		engine:     cfg.Engine,
		chat:       cfg.Chat,
		sendBuffer: cfg.SendBuffer,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, defaultBacklog),
		done:       make(chan struct{}),
	}
}

// Attach sets the relay used for browser input. It is set after construction
// because the relay usually belongs to the peer manager that uses this hub as
// its engine.
func (h *Hub) Attach(relay Relay) {
	h.relayMu.Lock()
	defer h.relayMu.Unlock()
	h.relay = relay
}

// Engine returns the wrapped drawing engine.
func (h *Hub) Engine() peer.Engine {
	return h.engine
}

// Clients reports connected browser clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Run owns the client set until ctx is done. Call it once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		for c := range h.clients {
			h.drop(c)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.sendSnapshot(c)
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			log.Info().Str("client_id", c.id).Int("clients", len(h.clients)).Msg("bridge.Hub client connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				log.Info().Str("client_id", c.id).Int("clients", len(h.clients)).Msg("bridge.Hub client disconnected")
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.drop(c)
					log.Warn().Str("client_id", c.id).Msg("bridge.Hub slow client dropped")
				}
			}
		}
	}
}

// sendSnapshot queues the display list ahead of any live event. It runs on the
// Run goroutine, so every draw is either in the snapshot or still queued on
// h.broadcast.
func (h *Hub) sendSnapshot(c *Client) {
	ops, ok := h.Snapshot()
	if !ok {
		return
	}
	data, err := json.Marshal(Event{Kind: EventSnapshot, Ops: ops})
	if err != nil {
		log.Error().Err(err).Str("client_id", c.id).Msg("bridge.Hub snapshot encode failed")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("client_id", c.id).Msg("bridge.Hub snapshot dropped, send buffer full")
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	h.count.Store(int64(len(h.clients)))
	close(c.send)
}

// ApplyRemoteAction applies a peer's drawing action and mirrors it to browsers.
func (h *Hub) ApplyRemoteAction(raw string) error {
	sender, action, err := protocol.ParseAction(raw)
	if err != nil {
		return err
	}
	if err := h.engine.ApplyRemoteAction(raw); err != nil {
		return err
	}
	h.publish(Event{Kind: EventDraw, Sender: sender, Action: &action})
	return nil
}

func (h *Hub) ClearCanvas() {
	h.engine.ClearCanvas()
	h.publish(Event{Kind: EventClear})
}

// ShowChat forwards to the wrapped chat sink and mirrors the line to browsers.
func (h *Hub) ShowChat(sender, text string) {
	if h.chat != nil {
		h.chat.ShowChat(sender, text)
	}
	h.publish(Event{Kind: EventChat, Sender: sender, Text: text})
}

// HandleLocal applies one browser payload locally, mirrors it to the other
// browsers and relays it to peers. A payload is one message; line breaks in it
// never start another.
func (h *Hub) HandleLocal(payload string) error {
	msg, err := protocol.ParseMessage(protocol.FormatLine(h.name, protocol.SingleLine(payload)))
	if err != nil {
		return err
	}

	relay := h.currentRelay()
	var out string
	switch msg.Kind {
	case protocol.KindChat:
		text := msg.Text()
		h.publish(Event{Kind: EventChat, Sender: h.name, Text: text})
		if relay != nil {
			relay.BroadcastChat(text)
		}
		return nil
	case protocol.KindClear:
		h.engine.ClearCanvas()
		out = protocol.EncodeClear()
		h.publish(Event{Kind: EventClear, Sender: h.name})
	case protocol.KindDrawAction:
		if err := msg.Action.Validate(); err != nil {
			return err
		}
		out = msg.Action.Encode()
		if err := h.engine.ApplyRemoteAction(protocol.FormatLine(h.name, out)); err != nil {
			return err
		}
		action := msg.Action
		h.publish(Event{Kind: EventDraw, Sender: h.name, Action: &action})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, msg.Kind)
	}

	if relay != nil {
		relay.Broadcast(out)
	}
	return nil
}

func (h *Hub) currentRelay() Relay {
	h.relayMu.RLock()
	defer h.relayMu.RUnlock()
	return h.relay
}

// Snapshot returns the current display list when the engine keeps one.
func (h *Hub) Snapshot() ([]canvas.Op, bool) {
	s, ok := h.engine.(Snapshotter)
	if !ok {
		return nil, false
	}
	return s.Ops(), true
}

func (h *Hub) publish(ev Event) {
	if !h.running.Load() {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("kind", ev.Kind).Msg("bridge.Hub.publish encode failed")
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		log.Warn().Str("kind", ev.Kind).Msg("bridge.Hub.publish backlog full, event dropped")
	}
}

func (h *Hub) join(c *Client) error {
	if !h.running.Load() {
		return ErrHubClosed
	}
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
