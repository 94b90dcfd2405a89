// Package store provides a scoped key-value store with JSON values,
// backed by one file per scope under a state directory. It persists
// the filter configuration, the history-cache mirror and UI
// preferences across sessions.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// KV is a durable key-value store. Writes rewrite the whole scope
// file; values only need to survive a JSON roundtrip, no byte-exact
// format is promised.
type KV struct {
	mu   sync.Mutex
	dir  string
	data map[string]map[string]json.RawMessage // scope -> key -> value
}

// Open loads (or creates) a store rooted at dir.
func Open(dir string) (*KV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &KV{dir: dir, data: make(map[string]map[string]json.RawMessage)}, nil
}

// Put serializes value under scope/key and flushes the scope to disk.
func (kv *KV) Put(scope, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", scope, key, err)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	sc, err := kv.load(scope)
	if err != nil {
		return err
	}
	sc[key] = raw
	return kv.flush(scope, sc)
}

// Get deserializes scope/key into out. Returns false when the key has
// never been written.
func (kv *KV) Get(scope, key string, out any) (bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	sc, err := kv.load(scope)
	if err != nil {
		return false, err
	}
	raw, ok := sc[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal %s/%s: %w", scope, key, err)
	}
	return true, nil
}

// Delete removes scope/key. Deleting an absent key is a no-op.
func (kv *KV) Delete(scope, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	sc, err := kv.load(scope)
	if err != nil {
		return err
	}
	if _, ok := sc[key]; !ok {
		return nil
	}
	delete(sc, key)
	return kv.flush(scope, sc)
}

// Keys lists the keys present in a scope.
func (kv *KV) Keys(scope string) ([]string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	sc, err := kv.load(scope)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(sc))
	for k := range sc {
		keys = append(keys, k)
	}
	return keys, nil
}

// load returns the cached scope map, reading its file on first touch.
// A missing or corrupt file yields an empty scope rather than an
// error; durable state is a convenience, not a source of truth.
func (kv *KV) load(scope string) (map[string]json.RawMessage, error) {
	if sc, ok := kv.data[scope]; ok {
		return sc, nil
	}

	sc := make(map[string]json.RawMessage)
	raw, err := os.ReadFile(kv.path(scope))
	if err == nil {
		if err := json.Unmarshal(raw, &sc); err != nil {
			sc = make(map[string]json.RawMessage)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read scope %s: %w", scope, err)
	}

	kv.data[scope] = sc
	return sc, nil
}

// flush writes a scope file atomically via rename.
func (kv *KV) flush(scope string, sc map[string]json.RawMessage) error {
	raw, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal scope %s: %w", scope, err)
	}

	tmp := kv.path(scope) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write scope %s: %w", scope, err)
	}
	if err := os.Rename(tmp, kv.path(scope)); err != nil {
		return fmt.Errorf("commit scope %s: %w", scope, err)
	}
	return nil
}

func (kv *KV) path(scope string) string {
	return filepath.Join(kv.dir, scope+".json")
}
