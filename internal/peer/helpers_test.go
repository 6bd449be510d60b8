package peer

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/sketchnet/internal/protocol/session"
)

type recordingEngine struct {
	mu      sync.Mutex
	actions []string
	clears  int
	err     error
	panicOn string
}

func (e *recordingEngine) ApplyRemoteAction(raw string) error {
	if e.panicOn != "" && raw == e.panicOn {
		panic("engine exploded")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.actions = append(e.actions, raw)
	return nil
}

func (e *recordingEngine) ClearCanvas() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clears++
}

func (e *recordingEngine) snapshot() ([]string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.actions))
	copy(out, e.actions)
	return out, e.clears
}

type chatLine struct {
	sender string
	text   string
}

type recordingChat struct {
	mu    sync.Mutex
	lines []chatLine
}

func (c *recordingChat) ShowChat(sender, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, chatLine{sender: sender, text: text})
}

func (c *recordingChat) snapshot() []chatLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chatLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// startManager serves a manager on a loopback port and tears it down with the test.
func startManager(t *testing.T, name string, engine Engine, chat ChatSink) (*Manager, string) {
	t.Helper()
	m, err := NewManager(ManagerConfig{
		Identity: Identity{DisplayName: name, ListenAddr: "127.0.0.1:0"},
		MaxPeers: 1,
		Session: session.Config{
			ConnectTimeout: time.Second,
			WriteTimeout:   time.Second,
		},
		Engine: engine,
		Chat:   chat,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		_ = m.Close()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
		m.Wait()
	})
	return m, ln.Addr().String()
}

func dialRaw(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, bufio.NewReader(conn)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func writeLine(t *testing.T, conn net.Conn, s string) {
	t.Helper()
	if _, err := conn.Write([]byte(s)); err != nil {
		t.Fatalf("write %q: %v", s, err)
	}
}

// fakeConn is an in-memory net.Conn that records writes and can fail them.
type fakeConn struct {
	mu       sync.Mutex
	writes   [][]byte
	failWith error
	closed   bool
}

var errFakeWrite = errors.New("fake write failure")

func (c *fakeConn) Read([]byte) (int, error) { return 0, net.ErrClosed }

func (c *fakeConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), b...))
	if c.failWith != nil {
		return 0, c.failWith
	}
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func (c *fakeConn) LocalAddr() net.Addr              { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1} }
func (c *fakeConn) RemoteAddr() net.Addr             { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 2} }
func (c *fakeConn) SetDeadline(time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
