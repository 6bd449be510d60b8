package peer

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/danmuck/sketchnet/internal/observability"
)

// PeerInfo is the read-only view of one live connection.
type PeerInfo struct {
	ID          uint64    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	Direction   string    `json:"direction"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Conn is one peer link. The receive loop that created it owns reads; sends may
// come from any goroutine and are serialized so concurrent broadcasts never
// interleave bytes of two lines.
type Conn struct {
	id           uint64
	netConn      net.Conn
	remote       string
	inbound      bool
	connectedAt  time.Time
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newConn(id uint64, nc net.Conn, inbound bool, writeTimeout time.Duration) *Conn {
	remote := ""
	if addr := nc.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Conn{
		id:           id,
		netConn:      nc,
		remote:       remote,
		inbound:      inbound,
		connectedAt:  time.Now(),
		writeTimeout: writeTimeout,
	}
}

func (c *Conn) ID() uint64 {
	return c.id
}

func (c *Conn) RemoteAddr() string {
	return c.remote
}

func (c *Conn) Inbound() bool {
	return c.inbound
}

func (c *Conn) Direction() string {
	if c.inbound {
		return observability.DirectionInbound
	}
	return observability.DirectionOutbound
}

func (c *Conn) Info() PeerInfo {
	return PeerInfo{
		ID:          c.id,
		RemoteAddr:  c.remote,
		Direction:   c.Direction(),
		ConnectedAt: c.connectedAt,
	}
}

// Send writes one already-framed line. It is best effort and never retried.
func (c *Conn) Send(line []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.netConn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.netConn.Write(line); err != nil {
		return fmt.Errorf("%w: remote=%s: %w", ErrSendFailed, c.remote, err)
	}
	return nil
}

// Close closes the socket once; later calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.netConn.Close()
	})
	return c.closeErr
}
