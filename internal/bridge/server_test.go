package bridge

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/sketchnet/internal/canvas"
	"github.com/danmuck/sketchnet/internal/peer"
	"github.com/danmuck/sketchnet/internal/testutil/testlog"
)

type staticPeers struct {
	peers []peer.PeerInfo
}

func (s staticPeers) Peers() []peer.PeerInfo { return s.peers }
func (s staticPeers) MaxPeers() int          { return 1 }

func get(t *testing.T, h http.Handler, path string) (int, []byte) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, body
}

func TestServerRoutes(t *testing.T) {
	testlog.Start(t)

	board := canvas.NewBoard()
	if err := board.ApplyRemoteAction("bob:circle:#00ff00:1:5:5:1:9:"); err != nil {
		t.Fatalf("seed board: %v", err)
	}
	info := peer.PeerInfo{ID: 1, RemoteAddr: "127.0.0.1:5001", Direction: "inbound", ConnectedAt: time.Unix(0, 0).UTC()}
	srv := NewServer(ServerConfig{
		Name:  "alice",
		Hub:   NewHub(HubConfig{Name: "alice", Engine: board}),
		Peers: staticPeers{peers: []peer.PeerInfo{info}},
	})
	h := srv.Handler()

	code, body := get(t, h, "/health")
	if code != http.StatusOK || !strings.Contains(string(body), `"status":"ok"`) {
		t.Fatalf("unexpected /health: %d %s", code, body)
	}

	code, _ = get(t, h, "/ready")
	if code != http.StatusOK {
		t.Fatalf("unexpected /ready status: %d", code)
	}

	code, body = get(t, h, "/peers")
	if code != http.StatusOK {
		t.Fatalf("unexpected /peers status: %d", code)
	}
	var peers struct {
		Peers    []peer.PeerInfo `json:"peers"`
		MaxPeers int             `json:"max_peers"`
	}
	if err := json.Unmarshal(body, &peers); err != nil {
		t.Fatalf("decode /peers: %v", err)
	}
	if len(peers.Peers) != 1 || peers.Peers[0].RemoteAddr != info.RemoteAddr || peers.MaxPeers != 1 {
		t.Fatalf("unexpected /peers body: %s", body)
	}

	code, body = get(t, h, "/canvas")
	if code != http.StatusOK || !strings.Contains(string(body), `"count":1`) || !strings.Contains(string(body), `"shape":"oval"`) {
		t.Fatalf("unexpected /canvas: %d %s", code, body)
	}

	code, body = get(t, h, "/metrics")
	if code != http.StatusOK || !strings.Contains(string(body), "sketchnet_peer_active") {
		t.Fatalf("unexpected /metrics: %d", code)
	}
}

func TestServerWithoutBridge(t *testing.T) {
	testlog.Start(t)

	h := NewServer(ServerConfig{Name: "alice"}).Handler()
	if code, _ := get(t, h, "/ready"); code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected /ready status without peers: %d", code)
	}
	if code, _ := get(t, h, "/canvas"); code != http.StatusNotFound {
		t.Fatalf("unexpected /canvas status without hub: %d", code)
	}
	if code, _ := get(t, h, "/ws"); code != http.StatusNotFound {
		t.Fatalf("unexpected /ws status without hub: %d", code)
	}
}
