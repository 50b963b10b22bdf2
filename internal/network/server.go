package network

import (
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ComfortBath/server/internal/engine"
	"github.com/MRamiBalles/ComfortBath/server/internal/events"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/metrics"
)

// Server upgrades HTTP requests into bath sessions.
type Server struct {
	hub      *Hub
	journal  *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	cfg      SessionConfig
	upgrader websocket.Upgrader
	sessions atomic.Uint64
}

// NewServer wires sessions to the shared hub and journal. journal may be nil.
func NewServer(hub *Hub, journal *events.EventLog, log *logger.Logger, m *metrics.Collector, cfg SessionConfig) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Server{
		hub:     hub,
		journal: journal,
		logger:  log,
		metrics: m,
		cfg:     cfg.normalized(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // the frontend dev server runs on another origin
			},
		},
	}
}

// ServeWs handles websocket requests from the peer.
func (s *Server) ServeWs(w http.ResponseWriter, r *http.Request) {
	if !s.hub.Admit() {
		s.logger.Warn("session rejected, server full", "remote", r.RemoteAddr)
		http.Error(w, "session limit reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.Release()
		s.metrics.RecordWSError()
		s.logger.Error("failed to upgrade websocket connection", "error", err)
		return
	}

	n := s.sessions.Add(1)
	var eng *engine.Engine
	if s.cfg.Seed != 0 {
		eng = engine.NewSeededEngine(s.journal, s.logger, s.cfg.Seed+n-1)
	} else {
		eng = engine.NewEngine(s.journal, s.logger, nil)
	}

	client := newClient(s.hub, conn, eng, s.cfg, s.logger.With("session", n), s.metrics)
	if !s.hub.add(client) {
		s.hub.Release()
		conn.Close()
		return
	}
	s.logger.Event("SESSION_OPENED", r.RemoteAddr, "session accepted")

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
	go client.Simulate()
}
