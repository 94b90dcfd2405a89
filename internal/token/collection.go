package token

import (
	"sort"
	"strings"
	"sync"
)

// Collection is the visible token set, exactly one entity per address.
// A later update for an address replaces the prior entity wholesale;
// tokens are never removed individually, only bulk-cleared when the
// transport drops.
type Collection struct {
	mu     sync.RWMutex
	tokens map[string]Token // keyed by lowercase address
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{tokens: make(map[string]Token)}
}

// Apply merges a batch in received order. Within the batch, a later
// entry for the same address wins.
func (c *Collection) Apply(batch []Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range batch {
		if t.Address == "" {
			continue
		}
		c.tokens[strings.ToLower(t.Address)] = t
	}
}

// Get looks up a token by address, case-insensitively.
func (c *Collection) Get(address string) (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tokens[strings.ToLower(address)]
	return t, ok
}

// Len returns the number of tracked tokens.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens)
}

// Clear drops every token. Called when the transport disconnects; the
// collection repopulates from the next initial batch.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = make(map[string]Token)
}

// Snapshot returns a copy of the collection ordered by address, a
// deterministic base order for the filter pipeline.
func (c *Collection) Snapshot() []Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Token, 0, len(c.tokens))
	for _, t := range c.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Address) < strings.ToLower(out[j].Address)
	})
	return out
}
