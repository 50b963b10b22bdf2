// Package metrics provides observability for the bath server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	lastTickTime   time.Time

	// Journal metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64
	ActionsDropped      int64

	// Run metrics
	RunsStarted int64
	RunsFailed  int64
	RunsReset   int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// New creates an empty collector. Servers use Get; tests use their own.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// RecordTick records one engine frame.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	storeMax(&c.TickLatencyMax, int64(latency))

	c.mu.Lock()
	c.lastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordEventWrite records a journal write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))
	storeMax(&c.EventWriteLatMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordEventDropped records a journal entry that never reached the database.
func (c *Collector) RecordEventDropped() {
	atomic.AddInt64(&c.EventWriteErrors, 1)
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordActionDropped records a player action rejected by rate limiting.
func (c *Collector) RecordActionDropped() {
	atomic.AddInt64(&c.ActionsDropped, 1)
}

// RecordRunStarted counts a run entering playing.
func (c *Collector) RecordRunStarted() { atomic.AddInt64(&c.RunsStarted, 1) }

// RecordRunFailed counts a run reaching failure.
func (c *Collector) RecordRunFailed() { atomic.AddInt64(&c.RunsFailed, 1) }

// RecordRunReset counts a reset.
func (c *Collector) RecordRunReset() { atomic.AddInt64(&c.RunsReset, 1) }

// TickStats summarises frame timing.
type TickStats struct {
	Count        int64   `json:"count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`
	LastTick     string  `json:"last_tick"`
}

// JournalStats summarises journal persistence.
type JournalStats struct {
	Written       int64   `json:"written"`
	AvgWriteLatMs float64 `json:"avg_write_lat_ms"`
	MaxWriteLatMs float64 `json:"max_write_lat_ms"`
	Errors        int64   `json:"errors"`
}

// WebSocketStats summarises session traffic.
type WebSocketStats struct {
	ActiveConnections int64 `json:"active_connections"`
	MessagesIn        int64 `json:"messages_in"`
	MessagesOut       int64 `json:"messages_out"`
	Errors            int64 `json:"errors"`
	ActionsDropped    int64 `json:"actions_dropped"`
}

// RunStats counts run lifecycle transitions.
type RunStats struct {
	Started int64 `json:"started"`
	Failed  int64 `json:"failed"`
	Reset   int64 `json:"reset"`
}

// Snapshot is a point-in-time copy of every metric.
type Snapshot struct {
	UptimeSeconds float64        `json:"uptime_seconds"`
	Tick          TickStats      `json:"tick"`
	Journal       JournalStats   `json:"journal"`
	WebSocket     WebSocketStats `json:"websocket"`
	Runs          RunStats       `json:"runs"`
}

// Snapshot returns current metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	lastTick := c.lastTickTime
	c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	// Calculate averages
	var tickAvg, eventAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	last := ""
	if !lastTick.IsZero() {
		last = lastTick.Format(time.RFC3339)
	}

	return Snapshot{
		UptimeSeconds: time.Since(c.StartTime).Seconds(),
		Tick: TickStats{
			Count:        tickCount,
			AvgLatencyMs: tickAvg,
			MaxLatencyMs: float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			LastTick:     last,
		},
		Journal: JournalStats{
			Written:       eventsWritten,
			AvgWriteLatMs: eventAvg,
			MaxWriteLatMs: float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			Errors:        atomic.LoadInt64(&c.EventWriteErrors),
		},
		WebSocket: WebSocketStats{
			ActiveConnections: atomic.LoadInt64(&c.WSConnectionsActive),
			MessagesIn:        atomic.LoadInt64(&c.WSMessagesIn),
			MessagesOut:       atomic.LoadInt64(&c.WSMessagesOut),
			Errors:            atomic.LoadInt64(&c.WSErrors),
			ActionsDropped:    atomic.LoadInt64(&c.ActionsDropped),
		},
		Runs: RunStats{
			Started: atomic.LoadInt64(&c.RunsStarted),
			Failed:  atomic.LoadInt64(&c.RunsFailed),
			Reset:   atomic.LoadInt64(&c.RunsReset),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		s := c.Snapshot()

		// Tick metrics
		fmt.Fprintf(w, "# HELP bath_tick_count Total engine frames\n")
		fmt.Fprintf(w, "# TYPE bath_tick_count counter\n")
		fmt.Fprintf(w, "bath_tick_count %d\n\n", s.Tick.Count)

		fmt.Fprintf(w, "# HELP bath_tick_latency_max_ms Maximum frame latency\n")
		fmt.Fprintf(w, "# TYPE bath_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "bath_tick_latency_max_ms %.2f\n\n", s.Tick.MaxLatencyMs)

		// Journal metrics
		fmt.Fprintf(w, "# HELP bath_events_written Total journal events written\n")
		fmt.Fprintf(w, "# TYPE bath_events_written counter\n")
		fmt.Fprintf(w, "bath_events_written %d\n\n", s.Journal.Written)

		fmt.Fprintf(w, "# HELP bath_event_write_errors Total journal write errors\n")
		fmt.Fprintf(w, "# TYPE bath_event_write_errors counter\n")
		fmt.Fprintf(w, "bath_event_write_errors %d\n\n", s.Journal.Errors)

		// WebSocket metrics
		fmt.Fprintf(w, "# HELP bath_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE bath_ws_connections gauge\n")
		fmt.Fprintf(w, "bath_ws_connections %d\n\n", s.WebSocket.ActiveConnections)

		fmt.Fprintf(w, "# HELP bath_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE bath_ws_messages_total counter\n")
		fmt.Fprintf(w, "bath_ws_messages_total{direction=\"in\"} %d\n", s.WebSocket.MessagesIn)
		fmt.Fprintf(w, "bath_ws_messages_total{direction=\"out\"} %d\n\n", s.WebSocket.MessagesOut)

		fmt.Fprintf(w, "# HELP bath_actions_dropped Player actions rejected by rate limiting\n")
		fmt.Fprintf(w, "# TYPE bath_actions_dropped counter\n")
		fmt.Fprintf(w, "bath_actions_dropped %d\n\n", s.WebSocket.ActionsDropped)

		// Runs
		fmt.Fprintf(w, "# HELP bath_runs_total Run lifecycle transitions\n")
		fmt.Fprintf(w, "# TYPE bath_runs_total counter\n")
		fmt.Fprintf(w, "bath_runs_total{outcome=\"started\"} %d\n", s.Runs.Started)
		fmt.Fprintf(w, "bath_runs_total{outcome=\"failed\"} %d\n", s.Runs.Failed)
		fmt.Fprintf(w, "bath_runs_total{outcome=\"reset\"} %d\n", s.Runs.Reset)
	}
}

// Handler serves the global collector as JSON.
func Handler() http.HandlerFunc {
	return collector.Handler()
}

// PrometheusHandler serves the global collector in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return collector.PrometheusHandler()
}
