package node

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/danmuck/sketchnet/internal/bridge"
	"github.com/danmuck/sketchnet/internal/canvas"
	"github.com/danmuck/sketchnet/internal/console"
	"github.com/danmuck/sketchnet/internal/peer"
	"github.com/danmuck/sketchnet/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyRunning = errors.New("node: service already running")

// ServiceConfig is the runtime shape of one peer.
type ServiceConfig struct {
	Name       string
	ListenAddr string
	MaxPeers   int
	// Connect lists host:port peers dialed once at startup.
	Connect     []string
	HTTPAddr    string
	CORSOrigins []string
	Console     bool
	HistoryFile string
	NoColor     bool
	Session     session.Config
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        "peer",
		ListenAddr:  "0.0.0.0:5000",
		MaxPeers:    peer.DefaultMaxPeers,
		Connect:     []string{},
		HTTPAddr:    "",
		CORSOrigins: []string{"http://localhost:3000"},
		Console:     true,
		HistoryFile: "",
		Session:     session.DefaultConfig(),
	}
}

type Service struct {
	cfg ServiceConfig

	board   *canvas.Board
	hub     *bridge.Hub
	manager *peer.Manager
	server  *bridge.Server
	printer *console.Printer
	console *console.Console

	// listen binds the peer listener; tests swap it.
	listen func() (net.Listener, error)

	mu      sync.Mutex
	running bool
}

func NewService() (*Service, error) {
	return NewServiceWithConfig(DefaultServiceConfig())
}

func NewServiceWithConfig(cfg ServiceConfig) (*Service, error) {
	def := DefaultServiceConfig()
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.MaxPeers <= 0 {
		cfg.MaxPeers = def.MaxPeers
	}
	cfg.Session = cfg.Session.WithDefaults()

	id, err := peer.NewIdentity(cfg.Name, cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	cfg.Name = id.DisplayName

	s := &Service{cfg: cfg, board: canvas.NewBoard()}

	var chat peer.ChatSink = peer.LogChat{}
	if cfg.Console {
		s.printer = console.NewPrinter(nil, cfg.NoColor)
		chat = s.printer
	}
	s.hub = bridge.NewHub(bridge.HubConfig{Name: id.DisplayName, Engine: s.board, Chat: chat})

	s.manager, err = peer.NewManager(peer.ManagerConfig{
		Identity: id,
		MaxPeers: cfg.MaxPeers,
		Session:  cfg.Session,
		Engine:   s.hub,
		Chat:     s.hub,
	})
	if err != nil {
		return nil, err
	}
	s.hub.Attach(s.manager.Broadcaster())
	s.listen = s.manager.Listen

	if addr := strings.TrimSpace(cfg.HTTPAddr); addr != "" {
		s.server = bridge.NewServer(bridge.ServerConfig{
			Name:        id.DisplayName,
			Addr:        addr,
			CORSOrigins: cfg.CORSOrigins,
			Hub:         s.hub,
			Peers:       s.manager,
		})
	}
	if cfg.Console {
		s.console = console.New(console.Config{
			Name:        id.DisplayName,
			Peers:       s.manager,
			Broadcast:   s.manager.Broadcaster(),
			Canvas:      s.hub,
			Printer:     s.printer,
			HistoryFile: cfg.HistoryFile,
		})
	}
	return s, nil
}

func (s *Service) Config() ServiceConfig {
	return s.cfg
}

func (s *Service) Board() *canvas.Board {
	return s.board
}

func (s *Service) Broadcaster() *peer.Broadcaster {
	return s.manager.Broadcaster()
}

func (s *Service) Peers() []peer.PeerInfo {
	return s.manager.Peers()
}

// Addr is the bound peer listen address once Run has started.
func (s *Service) Addr() net.Addr {
	return s.manager.Addr()
}

// Run blocks until SIGINT/SIGTERM or the console quits.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

func (s *Service) RunContext(parent context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	ln, err := s.listen()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 1)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				log.Error().Err(err).Str("component", name).Msg("node.Service.Run component failed")
				errs <- err
			}
		}()
	}

	// A failed accept loop only stops new inbound peers; live links and
	// outbound connects keep working, so it never ends the run.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.manager.Serve(ctx, ln); err != nil {
			log.Error().Err(err).Msg("node.Service.Run accept loop stopped, existing peers stay connected")
		}
	}()
	if s.server != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.hub.Run(ctx)
		}()
		run("http", func() error { return s.server.ListenAndServe(ctx) })
	}

	s.dialBootPeers(ctx)

	consoleDone := make(chan struct{})
	if s.console != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(consoleDone)
			if err := s.console.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("node.Service.Run console stopped")
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case <-consoleDone:
	case runErr = <-errs:
	}

	s.shutdown()
	cancel()
	wg.Wait()
	s.manager.Wait()
	return runErr
}

func (s *Service) dialBootPeers(ctx context.Context) {
	for _, raw := range s.cfg.Connect {
		addr := strings.TrimSpace(raw)
		if addr == "" {
			continue
		}
		info, err := s.manager.ConnectAddr(ctx, addr)
		if err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("node.Service boot connect failed")
			continue
		}
		log.Info().Str("addr", info.RemoteAddr).Msg("node.Service boot connect ok")
	}
}

// shutdown tells every peer the session is over, then closes all links.
func (s *Service) shutdown() {
	n := s.manager.Broadcaster().BroadcastClose()
	log.Info().Int("notified", n).Msg("node.Service shutdown")
	if err := s.manager.Close(); err != nil {
		log.Warn().Err(err).Msg("node.Service shutdown close failed")
	}
}
