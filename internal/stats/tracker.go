// Package stats provides thread-safe counters for the status pane.
package stats

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of session health.
type Snapshot struct {
	ConnectionState string
	Confirmed       bool

	MessagesTotal   int64
	TokensReceived  int64
	DroppedMessages int64
	HeartbeatsSent  int64

	MessageRate float64 // messages per second over the last 60s
	LastFlush   time.Time
	LastMessage time.Time
	Uptime      time.Duration
}

// Tracker accumulates session counters. All methods are safe for
// concurrent use; a nil *Tracker is a no-op receiver so callers can
// wire it optionally.
type Tracker struct {
	mu sync.RWMutex

	connectionState string
	confirmed       bool

	messagesTotal   int64
	tokensReceived  int64
	droppedMessages int64
	heartbeatsSent  int64

	messageTimes []time.Time
	lastFlush    time.Time
	lastMessage  time.Time
	startTime    time.Time
}

// NewTracker creates a Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		connectionState: "disconnected",
		messageTimes:    make([]time.Time, 0, 1024),
		startTime:       time.Now(),
	}
}

// SetConnectionState records the transport state label.
func (t *Tracker) SetConnectionState(state string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connectionState = state
	if state != "connected" {
		t.confirmed = false
	}
}

// SetConfirmed marks the session as server-confirmed.
func (t *Tracker) SetConfirmed(confirmed bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.confirmed = confirmed
}

// RecordMessage counts one inbound transport message.
func (t *Tracker) RecordMessage() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messagesTotal++
	now := time.Now()
	t.lastMessage = now
	t.messageTimes = append(t.messageTimes, now)

	// Keep a 60s window for the rate figure.
	cutoff := now.Add(-60 * time.Second)
	idx := 0
	for i, ts := range t.messageTimes {
		if ts.After(cutoff) {
			idx = i
			break
		}
	}
	if idx > 0 {
		t.messageTimes = t.messageTimes[idx:]
	}
}

// RecordTokens counts tokens accepted from a message.
func (t *Tracker) RecordTokens(n int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokensReceived += int64(n)
}

// RecordDropped counts one undecodable or malformed message.
func (t *Tracker) RecordDropped() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.droppedMessages++
}

// RecordHeartbeat counts one heartbeat sent.
func (t *Tracker) RecordHeartbeat() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.heartbeatsSent++
}

// RecordFlush notes a pending-batch flush.
func (t *Tracker) RecordFlush() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastFlush = time.Now()
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{ConnectionState: "disconnected"}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	rate := 0.0
	if len(t.messageTimes) > 1 {
		span := time.Since(t.messageTimes[0]).Seconds()
		if span > 0 {
			rate = float64(len(t.messageTimes)) / span
		}
	}

	return Snapshot{
		ConnectionState: t.connectionState,
		Confirmed:       t.confirmed,
		MessagesTotal:   t.messagesTotal,
		TokensReceived:  t.tokensReceived,
		DroppedMessages: t.droppedMessages,
		HeartbeatsSent:  t.heartbeatsSent,
		MessageRate:     rate,
		LastFlush:       t.lastFlush,
		LastMessage:     t.lastMessage,
		Uptime:          time.Since(t.startTime),
	}
}
