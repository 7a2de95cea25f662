package livechan

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"OpsRecon/internal/adapter"
	"OpsRecon/internal/domain/models"
	drepo "OpsRecon/internal/domain/repository"
	xlogger "OpsRecon/pkg/logger"
)

// Mode is the live channel's delivery mode.
type Mode string

const (
	ModeConnecting Mode = "connecting"
	ModeStreaming  Mode = "streaming"
	ModePolling    Mode = "polling"
)

// State is a read-only view of the channel for consumers.
type State struct {
	Mode       Mode      `json:"mode"`
	LastCursor time.Time `json:"lastCursor"`
	Buffered   int       `json:"buffered"`
}

// frame is one websocket message: an init snapshot or a single event.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (f frame) kind() string {
	if f.Type != "" {
		return f.Type
	}
	return f.Event
}

// Config holds live channel settings.
type Config struct {
	StreamURL    string        // websocket endpoint
	PollInterval time.Duration // fallback pull cadence (default 3s)
	PollLimit    int           // fallback pull page size (default 50)
	Capacity     int           // buffer capacity (default 200)
}

// Manager keeps one logical live feed fresh. It prefers a push connection
// and degrades to cursor-based polling on any transport error. Once degraded
// it stays polling for its lifetime; resuming the push connection is an
// explicit non-feature (see DESIGN.md).
type Manager struct {
	cfg       Config
	poll      *adapter.Fetcher
	normalize func(raw map[string]any, ordinal int) models.TelemetryEvent
	log       *xlogger.Logger
	metrics   drepo.Metrics

	mu     sync.Mutex
	mode   Mode
	cursor time.Time
	buf    *Buffer
	conn   *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a live channel manager. poll is the pull fallback for
// the same logical resource; normalize maps one raw object to an event.
func NewManager(cfg Config, poll *adapter.Fetcher, normalize func(map[string]any, int) models.TelemetryEvent, log *xlogger.Logger, metrics drepo.Metrics) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.PollLimit <= 0 {
		cfg.PollLimit = 50
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 200
	}
	return &Manager{
		cfg:       cfg,
		poll:      poll,
		normalize: normalize,
		log:       log,
		metrics:   metrics,
		mode:      ModeConnecting,
		buf:       NewBuffer(cfg.Capacity),
	}
}

// Start opens the push connection, degrading to polling if the dial fails.
// It never returns an error: a dead transport is a degraded channel, not a
// failed one.
func (m *Manager) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)

	conn, _, err := websocket.DefaultDialer.DialContext(m.ctx, m.cfg.StreamURL, nil)
	if err != nil {
		m.log.Warn("live connect failed, polling", xlogger.Error(err))
		m.degrade()
		return
	}

	m.mu.Lock()
	m.conn = conn
	m.setModeLocked(ModeStreaming)
	m.mu.Unlock()

	m.wg.Add(1)
	go m.readLoop(conn)
}

// Stop closes any open connection and cancels scheduled pulls.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Lock()
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// State returns the current channel state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Mode: m.mode, LastCursor: m.cursor, Buffered: m.buf.Len()}
}

// Snapshot returns the buffered events, newest first.
func (m *Manager) Snapshot() []models.TelemetryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Snapshot()
}

func (m *Manager) readLoop(conn *websocket.Conn) {
	defer m.wg.Done()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.log.Warn("live stream error, polling", xlogger.Error(err))
			m.degrade()
			return
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue // ignore malformed frames
		}
		switch f.kind() {
		case "init":
			var objs []map[string]any
			if err := json.Unmarshal(f.Data, &objs); err != nil {
				continue
			}
			m.ingest(objs)
		case "alert":
			var obj map[string]any
			if err := json.Unmarshal(f.Data, &obj); err != nil {
				continue
			}
			m.ingest([]map[string]any{obj})
		}
	}
}

// degrade closes the push connection and starts the pull loop. Safe to call
// from any state; only the first call per lifetime starts a loop.
func (m *Manager) degrade() {
	m.mu.Lock()
	if m.mode == ModePolling {
		m.mu.Unlock()
		return
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.setModeLocked(ModePolling)
	m.mu.Unlock()

	m.wg.Add(1)
	go m.pollLoop()
}

func (m *Manager) pollLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	m.pullOnce()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.pullOnce()
		}
	}
}

func (m *Manager) pullOnce() {
	m.mu.Lock()
	cursor := m.cursor
	m.mu.Unlock()

	query := map[string][]string{
		"limit": {strconv.Itoa(m.cfg.PollLimit)},
	}
	if !cursor.IsZero() {
		query["since"] = []string{cursor.UTC().Format(time.RFC3339Nano)}
	}
	objs := m.poll.Objects(m.ctx, query)
	if m.ctx.Err() != nil {
		return // torn down while the request was in flight
	}
	m.ingest(objs)
}

func (m *Manager) ingest(objs []map[string]any) {
	if len(objs) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, raw := range objs {
		ev := m.normalize(raw, i)
		// the server may replay events at or before the cursor; they only
		// fill the buffer, never move the cursor backwards
		m.buf.Insert(ev)
		if ev.Timestamp.After(m.cursor) {
			m.cursor = ev.Timestamp
		}
	}
	if m.metrics != nil {
		m.metrics.RecordIngested("live", len(objs))
	}
}

func (m *Manager) setModeLocked(mode Mode) {
	m.mode = mode
	if m.metrics != nil {
		m.metrics.RecordLiveMode(string(mode))
	}
}
