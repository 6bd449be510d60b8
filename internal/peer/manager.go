package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/danmuck/sketchnet/internal/observability"
	"github.com/danmuck/sketchnet/internal/protocol"
	"github.com/danmuck/sketchnet/internal/protocol/frame"
	"github.com/danmuck/sketchnet/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

// BusyNotice is the chat text sent to an inbound peer rejected at capacity.
const BusyNotice = "Busy. Already connected to a peer"

// DefaultMaxPeers keeps the one-peer behavior of a classic session.
const DefaultMaxPeers = 1

type ManagerConfig struct {
	Identity Identity
	MaxPeers int
	Session  session.Config
	Engine   Engine
	Chat     ChatSink
}

// Manager owns the listener, the live connection set and one receive loop per
// connection.
type Manager struct {
	id          Identity
	cfg         session.Config
	set         *ConnectionSet
	dispatcher  *Dispatcher
	broadcaster *Broadcaster
	nextID      atomic.Uint64

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	loops sync.WaitGroup
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.Identity.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	maxPeers := cfg.MaxPeers
	if maxPeers <= 0 {
		maxPeers = DefaultMaxPeers
	}
	set := NewConnectionSet(maxPeers)
	return &Manager{
		id:          cfg.Identity,
		cfg:         cfg.Session.WithDefaults(),
		set:         set,
		dispatcher:  NewDispatcher(cfg.Engine, cfg.Chat),
		broadcaster: NewBroadcaster(cfg.Identity.DisplayName, set),
	}, nil
}

func (m *Manager) Identity() Identity {
	return m.id
}

func (m *Manager) Broadcaster() *Broadcaster {
	return m.broadcaster
}

// Peers lists the live connections in registration order.
func (m *Manager) Peers() []PeerInfo {
	conns := m.set.Snapshot()
	out := make([]PeerInfo, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.Info())
	}
	return out
}

func (m *Manager) MaxPeers() int {
	return m.set.Cap()
}

// Addr returns the bound listen address, or nil before Listen/Serve.
func (m *Manager) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Listen binds the identity's listen address. Go listeners set SO_REUSEADDR on
// Unix, so a quick restart does not wait out TIME_WAIT.
func (m *Manager) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", m.id.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("peer: listen %s: %w", m.id.ListenAddr, err)
	}
	return ln, nil
}

func (m *Manager) ListenAndServe(ctx context.Context) error {
	ln, err := m.Listen()
	if err != nil {
		return err
	}
	return m.Serve(ctx, ln)
}

// Serve runs the accept loop until ctx is done or ln is closed. An accept
// failure ends only this loop; live connections keep running.
func (m *Manager) Serve(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		return fmt.Errorf("%w: nil listener", ErrInvalidAddress)
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = ln.Close()
		return ErrManagerClosed
	}
	m.listener = ln
	m.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Str("name", m.id.DisplayName).Int("max_peers", m.set.Cap()).Msg("peer.Manager.Serve listening")
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Error().Err(err).Msg("peer.Manager.Serve accept failed, accept loop stopped")
			return fmt.Errorf("peer: accept: %w", err)
		}
		m.accept(nc)
	}
}

func (m *Manager) accept(nc net.Conn) {
	c := m.newConn(nc, true)
	if err := m.register(c); err != nil {
		if errors.Is(err, ErrAlreadyConnected) {
			m.rejectBusy(c)
			return
		}
		_ = c.Close()
		return
	}
	m.start(c)
}

func (m *Manager) rejectBusy(c *Conn) {
	line := []byte(protocol.FormatLine(m.id.DisplayName, protocol.EncodeChat(BusyNotice)))
	if err := c.Send(line); err != nil {
		log.Warn().Err(err).Str("remote", c.RemoteAddr()).Msg("peer.Manager.accept busy notice failed")
	}
	_ = c.Close()
	observability.RecordConnection(observability.DirectionInbound, observability.ResultRejected)
	log.Warn().Str("remote", c.RemoteAddr()).Int("active", m.set.Len()).Msg("peer.Manager.accept rejected, at capacity")
}

// Connect dials host:port and registers the link. At capacity it fails with
// ErrAlreadyConnected before any network I/O.
func (m *Manager) Connect(ctx context.Context, host string, port int) (PeerInfo, error) {
	addr, err := JoinAddr(host, port)
	if err != nil {
		return PeerInfo{}, err
	}
	return m.ConnectAddr(ctx, addr)
}

func (m *Manager) ConnectAddr(ctx context.Context, addr string) (PeerInfo, error) {
	if m.isClosed() {
		return PeerInfo{}, ErrManagerClosed
	}
	if m.set.Full() {
		observability.RecordConnection(observability.DirectionOutbound, observability.ResultRejected)
		return PeerInfo{}, ErrAlreadyConnected
	}

	dialer := net.Dialer{Timeout: m.cfg.ConnectTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		observability.RecordConnection(observability.DirectionOutbound, observability.ResultFailed)
		err = dialError(addr, err)
		log.Warn().Err(err).Str("addr", addr).Msg("peer.Manager.Connect failed")
		return PeerInfo{}, err
	}

	c := m.newConn(nc, false)
	if err := m.register(c); err != nil {
		_ = c.Close()
		observability.RecordConnection(observability.DirectionOutbound, observability.ResultRejected)
		return PeerInfo{}, err
	}
	m.start(c)
	return c.Info(), nil
}

func dialError(addr string, err error) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %s: %w", ErrConnectionRefused, addr, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrConnectFailed, addr, err)
}

// Close stops accepting, closes every live connection and makes further
// connects fail. Receive loops exit on their own; use Wait to join them.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	ln := m.listener
	m.mu.Unlock()

	var err error
	if ln != nil {
		if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}
	for _, c := range m.set.Snapshot() {
		_ = c.Close()
	}
	return err
}

// Wait blocks until every receive loop has returned.
func (m *Manager) Wait() {
	m.loops.Wait()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) newConn(nc net.Conn, inbound bool) *Conn {
	return newConn(m.nextID.Add(1), nc, inbound, m.cfg.WriteTimeout)
}

// register adds c unless the manager is closed or full. It holds m.mu so Close
// never misses a connection added concurrently.
func (m *Manager) register(c *Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	if !m.set.TryAdd(c) {
		return ErrAlreadyConnected
	}
	return nil
}

func (m *Manager) start(c *Conn) {
	observability.RecordConnection(c.Direction(), observability.ResultAccepted)
	log.Info().
		Uint64("peer_id", c.ID()).
		Str("remote", c.RemoteAddr()).
		Str("direction", c.Direction()).
		Int("active", m.set.Len()).
		Msg("peer.Manager connected")
	m.loops.Add(1)
	go m.receiveLoop(c)
}

func (m *Manager) receiveLoop(c *Conn) {
	defer m.loops.Done()

	framer := frame.NewFramer(m.cfg.FrameLimits())
	buf := make([]byte, m.cfg.ReadBufferBytes)
	for {
		n, err := c.netConn.Read(buf)
		if n > 0 {
			lines, ferr := framer.Feed(buf[:n])
			for _, line := range lines {
				if m.dispatcher.Dispatch(c.RemoteAddr(), line) == OutcomeClose {
					m.drop(c, "peer closed the session")
					return
				}
			}
			if ferr != nil {
				log.Warn().Err(ferr).Str("remote", c.RemoteAddr()).Int("buffered", framer.Buffered()).Msg("peer.Manager.receiveLoop framing failed")
				m.drop(c, "framing failed")
				return
			}
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				m.drop(c, "peer closed the stream")
			case errors.Is(err, net.ErrClosed):
				m.drop(c, "closed locally")
			default:
				log.Warn().
					Err(err).
					Str("remote", c.RemoteAddr()).
					Str("pending", truncate(framer.Pending(), logPreviewBytes)).
					Msg("peer.Manager.receiveLoop read failed")
				m.drop(c, "read failed")
			}
			return
		}
	}
}

func (m *Manager) drop(c *Conn, reason string) {
	if m.set.Remove(c) {
		observability.RecordConnection(c.Direction(), observability.ResultClosed)
		log.Info().
			Uint64("peer_id", c.ID()).
			Str("remote", c.RemoteAddr()).
			Str("reason", reason).
			Int("active", m.set.Len()).
			Msg("peer.Manager disconnected")
	}
	_ = c.Close()
}
