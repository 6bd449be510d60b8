package peer

import (
	"github.com/danmuck/sketchnet/internal/observability"
	"github.com/danmuck/sketchnet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Broadcaster sends locally originated messages to every live connection.
type Broadcaster struct {
	sender string
	set    *ConnectionSet
}

func NewBroadcaster(sender string, set *ConnectionSet) *Broadcaster {
	return &Broadcaster{sender: sender, set: set}
}

// Broadcast frames payload as "<sender>:<payload>\n" and writes it to a
// snapshot of the live set. Line breaks inside payload are flattened, so one
// call is always one message on the wire. A failed send is logged and skipped; it never stops
// delivery to the rest and never removes the connection. It returns the number
// of successful sends.
func (b *Broadcaster) Broadcast(payload string) int {
	line := []byte(protocol.FormatLine(b.sender, protocol.SingleLine(payload)))
	sent := 0
	for _, c := range b.set.Snapshot() {
		if err := c.Send(line); err != nil {
			log.Warn().Err(err).Uint64("peer_id", c.ID()).Str("remote", c.RemoteAddr()).Msg("peer.Broadcaster.Broadcast send failed")
			observability.RecordBroadcastSend(false)
			continue
		}
		observability.RecordBroadcastSend(true)
		sent++
	}
	return sent
}

// BroadcastChat sends one chat line. Embedded newlines are flattened so the
// text stays a single message.
func (b *Broadcaster) BroadcastChat(text string) int {
	return b.Broadcast(protocol.EncodeChat(protocol.SingleLine(text)))
}

func (b *Broadcaster) BroadcastClear() int {
	return b.Broadcast(protocol.EncodeClear())
}

func (b *Broadcaster) BroadcastClose() int {
	return b.Broadcast(protocol.EncodeClose())
}

// BroadcastAction validates and sends one drawing action.
func (b *Broadcaster) BroadcastAction(a protocol.DrawAction) (int, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	return b.Broadcast(a.Encode()), nil
}

// Line returns the framed line Broadcast would send for payload.
func (b *Broadcaster) Line(payload string) string {
	return protocol.FormatLine(b.sender, protocol.SingleLine(payload))
}
