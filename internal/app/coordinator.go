// Package app connects the session's event queue to the visible token
// collection. All collection mutation funnels through one Coordinator,
// so the rendering side only ever sees consistent snapshots.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/scanwatch/dashboard/internal/session"
	"github.com/scanwatch/dashboard/internal/token"
)

// Coordinator applies session events to the collection and tracks the
// user-visible connection status.
type Coordinator struct {
	mu         sync.Mutex
	collection *token.Collection
	state      session.State
	confirmed  bool
	hasInitial bool

	onChange func() // may be nil; invoked after every applied event
}

// NewCoordinator creates a Coordinator over the given collection.
func NewCoordinator(collection *token.Collection, onChange func()) *Coordinator {
	return &Coordinator{
		collection: collection,
		state:      session.StateClosed,
		onChange:   onChange,
	}
}

// Run consumes events until the channel closes or ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ev)
		}
	}
}

// HandleEvent applies one session event.
func (c *Coordinator) HandleEvent(ev session.Event) {
	switch e := ev.(type) {
	case session.BatchEvent:
		c.collection.Apply(e.Tokens)
		c.mu.Lock()
		c.hasInitial = true
		c.mu.Unlock()
		slog.Debug("batch_applied", "count", len(e.Tokens), "tracked", c.collection.Len())

	case session.StatusEvent:
		c.mu.Lock()
		c.state = e.State
		if e.Confirmed {
			c.confirmed = true
		}
		closed := e.State == session.StateClosed
		if closed {
			c.confirmed = false
			c.hasInitial = false
		}
		c.mu.Unlock()

		// A dropped transport invalidates the whole visible set; it
		// repopulates from the next initial batch.
		if closed {
			c.collection.Clear()
			slog.Info("collection_cleared", "reason", "transport closed")
		}
	}

	if c.onChange != nil {
		c.onChange()
	}
}

// Status reports the connection state, whether the relay confirmed the
// session, and whether any data arrived since the last (re)connect.
func (c *Coordinator) Status() (state session.State, confirmed, hasInitial bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.confirmed, c.hasInitial
}
