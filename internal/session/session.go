package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scanwatch/dashboard/internal/stats"
	"github.com/scanwatch/dashboard/internal/token"
)

// State is the connection lifecycle state.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosing    State = "closing"
	StateClosed     State = "closed"
)

// Default timings. Reconnection is an unconditional fixed-delay retry
// with no attempt ceiling; heartbeats keep the relay from reaping the
// session.
const (
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultReconnectDelay    = 5 * time.Second
	DefaultFlushInterval     = 100 * time.Millisecond
	DefaultFlushLimit        = 50

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// Event is a message from the session to its owner. The session never
// shares mutable state; batches and status changes are the only
// channel between transport and collection.
type Event interface{ sessionEvent() }

// BatchEvent delivers normalized tokens, in received order, for the
// owner to apply to the visible collection.
type BatchEvent struct {
	Tokens []token.Token
}

// StatusEvent reports a lifecycle change. Confirmed is set once the
// relay has acknowledged the session with CONNECTED.
type StatusEvent struct {
	State     State
	Confirmed bool
}

func (BatchEvent) sessionEvent()  {}
func (StatusEvent) sessionEvent() {}

// Config holds session parameters; zero values take the defaults.
type Config struct {
	URL               string
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration
	FlushInterval     time.Duration
	FlushLimit        int
}

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.FlushLimit <= 0 {
		c.FlushLimit = DefaultFlushLimit
	}
	return c
}

// Session manages the relay WebSocket connection.
type Session struct {
	cfg     Config
	events  chan Event
	tracker *stats.Tracker

	connMu sync.Mutex
	conn   *websocket.Conn

	pendMu    sync.Mutex
	pending   []token.Token
	confirmed bool

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a Session. tracker may be nil.
func New(cfg Config, tracker *stats.Tracker) *Session {
	return &Session{
		cfg:      cfg.withDefaults(),
		events:   make(chan Event, 64),
		tracker:  tracker,
		stopChan: make(chan struct{}),
	}
}

// Events returns the queue of batch-apply and status-change events.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Start runs the connect/read/reconnect loop until ctx is cancelled or
// Stop is called.
func (s *Session) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.runLoop(ctx)
}

// Stop tears the session down.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.closeConnection()
	s.wg.Wait()
}

func (s *Session) runLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		default:
		}

		s.emit(ctx, StatusEvent{State: StateConnecting})
		s.tracker.SetConnectionState("connecting")

		if err := s.connect(ctx); err != nil {
			slog.Error("ws_connect_failed", "error", err, "retry_in", s.cfg.ReconnectDelay)
			s.tracker.SetConnectionState("disconnected")
			s.emit(ctx, StatusEvent{State: StateClosed})
			s.waitReconnect(ctx)
			continue
		}

		s.tracker.SetConnectionState("connected")
		s.emit(ctx, StatusEvent{State: StateOpen})

		// Per-connection goroutines live until the read loop exits.
		connDone := make(chan struct{})
		s.wg.Add(2)
		go s.heartbeatLoop(connDone)
		go s.flushLoop(ctx, connDone)

		if err := s.readLoop(ctx); err != nil {
			slog.Warn("ws_read_error", "error", err)
		}
		close(connDone)

		s.teardown()
		s.tracker.SetConnectionState("disconnected")
		s.emit(ctx, StatusEvent{State: StateClosed})

		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		default:
			s.waitReconnect(ctx)
		}
	}
}

// connect dials the relay and requests the initial token batch.
func (s *Session) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return err
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	slog.Info("ws_connected", "endpoint", s.cfg.URL)

	return s.send(Message{Type: TypeRequestTokens, Timestamp: time.Now().UnixMilli()})
}

// readLoop reads and dispatches until the connection drops.
func (s *Session) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopChan:
			return nil
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			return nil
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		s.tracker.RecordMessage()
		s.handleMessage(data)
	}
}

// handleMessage decodes one frame and dispatches by kind. Undecodable
// frames are dropped with a log line, never fatal.
func (s *Session) handleMessage(data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		s.tracker.RecordDropped()
		slog.Debug("ws_message_dropped", "error", err, "bytes", len(data))
		return
	}

	switch msg.Type {
	case TypeConnected:
		s.markConfirmed()

	case TypeNewToken:
		if tok, ok := decodeRaw(msg.Token); ok {
			s.enqueue([]token.Token{tok})
			s.tracker.RecordTokens(1)
		} else {
			s.tracker.RecordDropped()
		}

	case TypeBatchUpdate:
		batch := decodeBatch(msg.Data)
		if len(batch) > 0 {
			s.enqueue(batch)
			s.tracker.RecordTokens(len(batch))
		}

	case TypeHeartbeat:
		// Reply immediately, no queuing.
		if err := s.send(Message{Type: TypeHeartbeatAck, Timestamp: time.Now().UnixMilli()}); err != nil {
			slog.Warn("ws_heartbeat_ack_failed", "error", err)
		}

	case TypeHeartbeatAck:
		// Liveness acknowledgment, nothing to do.

	default:
		slog.Debug("ws_message_unknown", "type", msg.Type)
	}
}

// markConfirmed is idempotent; only the first CONNECTED emits a
// status event.
func (s *Session) markConfirmed() {
	s.pendMu.Lock()
	already := s.confirmed
	s.confirmed = true
	s.pendMu.Unlock()

	if !already {
		s.tracker.SetConfirmed(true)
		s.emit(context.Background(), StatusEvent{State: StateOpen, Confirmed: true})
	}
}

// decodeRaw normalizes one raw record; a malformed record is dropped
// in isolation.
func decodeRaw(data json.RawMessage) (token.Token, bool) {
	if len(data) == 0 {
		return token.Token{}, false
	}
	var raw token.RawToken
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Debug("token_record_dropped", "error", err)
		return token.Token{}, false
	}
	if raw.TokenAddress == "" {
		return token.Token{}, false
	}
	return token.Normalize(raw), true
}

// decodeBatch splits an array payload and normalizes per item, so one
// bad record never fails the rest of the batch.
func decodeBatch(data json.RawMessage) []token.Token {
	if len(data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Debug("batch_payload_dropped", "error", err)
		return nil
	}

	batch := make([]token.Token, 0, len(items))
	for _, item := range items {
		if tok, ok := decodeRaw(item); ok {
			batch = append(batch, tok)
		}
	}
	return batch
}

// enqueue appends to the pending-apply batch, flushed on a fixed
// cadence rather than per message.
func (s *Session) enqueue(batch []token.Token) {
	s.pendMu.Lock()
	s.pending = append(s.pending, batch...)
	s.pendMu.Unlock()
}

// flushLoop drains the pending batch every FlushInterval, at most
// FlushLimit tokens per tick, so a reconnect flood cannot trigger a
// rendering storm.
func (s *Session) flushLoop(ctx context.Context, connDone <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-connDone:
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if batch := s.takePending(); len(batch) > 0 {
				s.tracker.RecordFlush()
				s.emit(ctx, BatchEvent{Tokens: batch})
			}
		}
	}
}

// takePending removes up to FlushLimit tokens from the pending batch,
// preserving received order.
func (s *Session) takePending() []token.Token {
	s.pendMu.Lock()
	defer s.pendMu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}
	n := len(s.pending)
	if n > s.cfg.FlushLimit {
		n = s.cfg.FlushLimit
	}
	batch := make([]token.Token, n)
	copy(batch, s.pending[:n])
	s.pending = s.pending[n:]
	return batch
}

// heartbeatLoop sends a liveness ping on a fixed cadence.
func (s *Session) heartbeatLoop(connDone <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-connDone:
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if err := s.send(Message{Type: TypeHeartbeat, Timestamp: time.Now().UnixMilli()}); err != nil {
				slog.Warn("ws_heartbeat_failed", "error", err)
				s.closeConnection()
				return
			}
			s.tracker.RecordHeartbeat()
		}
	}
}

// send serializes one outbound message; writes are mutex-serialized.
func (s *Session) send(msg Message) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return websocket.ErrCloseSent
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(msg)
}

// teardown runs the close path: drop the connection, discard the
// pending batch, reset confirmation.
func (s *Session) teardown() {
	s.closeConnection()

	s.pendMu.Lock()
	s.pending = nil
	s.confirmed = false
	s.pendMu.Unlock()

	s.tracker.SetConfirmed(false)
}

func (s *Session) closeConnection() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		slog.Info("ws_disconnected")
	}
}

// waitReconnect sleeps the fixed reconnect delay.
func (s *Session) waitReconnect(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.stopChan:
	case <-time.After(s.cfg.ReconnectDelay):
	}
}

// emit delivers an event, giving up only on shutdown.
func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-s.stopChan:
	case <-ctx.Done():
	}
}
