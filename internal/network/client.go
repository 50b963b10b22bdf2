package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ComfortBath/server/internal/domain/bath"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/rules"
	"github.com/MRamiBalles/ComfortBath/server/internal/engine"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// ActionType names a player input.
type ActionType string

const (
	ActionStart    ActionType = "START"
	ActionReset    ActionType = "RESET"
	ActionTempUp   ActionType = "TEMP_UP"   // physical up button
	ActionTempDown ActionType = "TEMP_DOWN" // physical down button
	ActionCenter   ActionType = "CENTER"
	ActionForce    ActionType = "FORCE" // debug: start an interference of Kind
)

func (a ActionType) valid() bool {
	switch a {
	case ActionStart, ActionReset, ActionTempUp, ActionTempDown, ActionCenter, ActionForce:
		return true
	}
	return false
}

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type ActionType            `json:"type"`
	Kind bath.InterferenceKind `json:"kind,omitempty"` // FORCE only
}

// Outgoing message types.
const (
	MessageState = "STATE"
	MessageError = "ERROR"
)

// ServerMessage is pushed to the frontend.
type ServerMessage struct {
	Type                 string          `json:"type"`
	State                *bath.GameState `json:"state,omitempty"`
	DisplayedTemperature *float64        `json:"displayed_temperature,omitempty"`
	Error                string          `json:"error,omitempty"`
}

// SessionConfig tunes one session.
type SessionConfig struct {
	TickHz              int
	SnapshotHz          int
	SendBuffer          int
	ActionBuffer        int
	MaxActionsPerSecond int    // 0 disables rate limiting
	Seed                uint64 // 0 seeds each session from the clock
}

func (c SessionConfig) normalized() SessionConfig {
	if c.TickHz <= 0 {
		c.TickHz = engine.DefaultTickHz
	}
	if c.SnapshotHz <= 0 {
		c.SnapshotHz = 20
	}
	if c.SnapshotHz > c.TickHz {
		c.SnapshotHz = c.TickHz
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.ActionBuffer <= 0 {
		c.ActionBuffer = 32
	}
	return c
}

// Client is one websocket session. It owns an Engine and its GameState;
// only the Simulate goroutine touches either.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	actions chan PlayerAction
	logger  *logger.Logger
	metrics *metrics.Collector
	cfg     SessionConfig

	engine *engine.Engine
	state  bath.GameState

	closed    chan struct{}
	closeOnce sync.Once

	// Rate window, owned by ReadPump.
	windowStart time.Time
	windowCount int
}

func newClient(hub *Hub, conn *websocket.Conn, eng *engine.Engine, cfg SessionConfig, log *logger.Logger, m *metrics.Collector) *Client {
	cfg = cfg.normalized()
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, cfg.SendBuffer),
		actions: make(chan PlayerAction, cfg.ActionBuffer),
		logger:  log,
		metrics: m,
		cfg:     cfg,
		engine:  eng,
		closed:  make(chan struct{}),
	}
}

// Close ends the session. Safe to call from any goroutine, more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// ReadPump pumps actions from the websocket connection to the simulation.
func (c *Client) ReadPump() {
	defer func() {
		c.Close()
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.metrics.RecordWSError()
				c.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		c.metrics.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.logger.Warn("failed to parse player action", "error", err)
			c.sendError("malformed action")
			continue
		}
		if !action.Type.valid() {
			c.logger.Warn("unknown player action", "type", action.Type)
			c.sendError("unknown action " + string(action.Type))
			continue
		}
		if !c.allow(time.Now()) {
			c.metrics.RecordActionDropped()
			c.logger.Warn("rate limit exceeded, action dropped", "type", action.Type)
			continue
		}

		select {
		case c.actions <- action:
		default:
			c.metrics.RecordActionDropped()
			c.logger.Warn("action queue full, action dropped", "type", action.Type)
		}
	}
}

// allow applies a fixed one-second window to incoming actions.
func (c *Client) allow(now time.Time) bool {
	if c.cfg.MaxActionsPerSecond <= 0 {
		return true
	}
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	if c.windowCount >= c.cfg.MaxActionsPerSecond {
		return false
	}
	c.windowCount++
	return true
}

// Simulate runs the session's frame loop until the session closes.
func (c *Client) Simulate() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	c.state = c.engine.CreateInitialState()
	c.pushState()

	snapshotEvery := time.Second / time.Duration(c.cfg.SnapshotHz)
	lastSnapshot := time.Now()

	ticker := engine.NewTicker(c.cfg.TickHz, c.logger)
	ticker.Start(ctx, func(dt float64) {
		start := time.Now()
		dirty := c.drainActions()

		before := c.state.GameStatus
		c.state = c.engine.Advance(c.state, dt)
		if before == bath.StatusPlaying && c.state.GameStatus == bath.StatusFailure {
			c.metrics.RecordRunFailed()
			dirty = true
		}
		c.metrics.RecordTick(time.Since(start))

		if dirty || start.Sub(lastSnapshot) >= snapshotEvery {
			c.pushState()
			lastSnapshot = start
		}
	})
}

func (c *Client) drainActions() bool {
	applied := false
	for {
		select {
		case action := <-c.actions:
			c.apply(action)
			applied = true
		default:
			return applied
		}
	}
}

func (c *Client) apply(action PlayerAction) {
	switch action.Type {
	case ActionStart:
		before := c.state.GameStatus
		c.state = c.engine.StartGame(c.state)
		if before == bath.StatusReady && c.state.GameStatus == bath.StatusPlaying {
			c.metrics.RecordRunStarted()
		}
	case ActionReset:
		c.state = c.engine.ResetGame()
		c.metrics.RecordRunReset()
	case ActionTempUp:
		c.state = c.engine.ApplyTap(c.state, rules.TapUp)
	case ActionTempDown:
		c.state = c.engine.ApplyTap(c.state, rules.TapDown)
	case ActionCenter:
		c.state = c.engine.ApplyCenterAction(c.state)
	case ActionForce:
		c.state = c.engine.ForceInterference(c.state, action.Kind)
	}
}

func (c *Client) pushState() {
	state := c.state.Clone()
	displayed := state.DisplayedTemperature()
	c.enqueue(ServerMessage{Type: MessageState, State: &state, DisplayedTemperature: &displayed})
}

func (c *Client) sendError(msg string) {
	c.enqueue(ServerMessage{Type: MessageError, Error: msg})
}

// enqueue never blocks: a slow peer loses messages, and the next snapshot supersedes them.
func (c *Client) enqueue(msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to serialize server message", "error", err)
		return
	}
	select {
	case <-c.closed:
	case c.send <- payload:
		c.metrics.RecordWSMessage(false)
	default:
		c.logger.Debug("send buffer full, message dropped", "type", msg.Type)
	}
}

// WritePump pumps messages from the session to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.metrics.RecordWSError()
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				c.metrics.RecordWSError()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
