package bridge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/danmuck/sketchnet/internal/observability"
	"github.com/danmuck/sketchnet/internal/peer"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

// PeerLister reports live peer links. *peer.Manager satisfies it.
type PeerLister interface {
	Peers() []peer.PeerInfo
	MaxPeers() int
}

type ServerConfig struct {
	Name        string
	Addr        string
	CORSOrigins []string
	Hub         *Hub
	Peers       PeerLister
}

// Server is the HTTP surface of one peer.
type Server struct {
	name     string
	addr     string
	hub      *Hub
	peers    PeerLister
	started  time.Time
	router   *gin.Engine
	upgrader websocket.Upgrader
}

func NewServer(cfg ServerConfig) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		name:     cfg.Name,
		addr:     cfg.Addr,
		hub:      cfg.Hub,
		peers:    cfg.Peers,
		started:  time.Now(),
		router:   r,
		upgrader: newUpgrader(cfg.CORSOrigins),
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"peer":    s.name,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		ready := s.peers != nil
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"uptime":  time.Since(s.started).String(),
			"peer":    s.name,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/peers", func(c *gin.Context) {
		if s.peers == nil {
			c.JSON(http.StatusOK, gin.H{"peers": []peer.PeerInfo{}, "max_peers": 0})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"peers":     s.peers.Peers(),
			"max_peers": s.peers.MaxPeers(),
		})
	})

	s.router.GET("/canvas", func(c *gin.Context) {
		if s.hub == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "canvas bridge disabled"})
			return
		}
		ops, ok := s.hub.Snapshot()
		if !ok {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "engine keeps no display list"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ops": ops, "count": len(ops)})
	})

	s.router.GET("/ws", func(c *gin.Context) {
		if s.hub == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "canvas bridge disabled"})
			return
		}
		s.hub.ServeWS(s.upgrader, c.Writer, c.Request)
	})
}

// Serve serves HTTP on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("bridge.Server shutdown failed")
			}
		case <-stop:
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("bridge.Server listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = normalizeOrigins(origins)
	return cfg
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
