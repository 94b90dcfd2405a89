package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRoundtrip(t *testing.T) {
	kv, err := Open(t.TempDir())
	require.NoError(t, err)

	type prefs struct {
		Background string `json:"background"`
		Rows       int    `json:"rows"`
	}

	require.NoError(t, kv.Put("ui", "prefs", prefs{Background: "black", Rows: 50}))

	var got prefs
	ok, err := kv.Get("ui", "prefs", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, prefs{Background: "black", Rows: 50}, got)
}

func TestKVMissingKey(t *testing.T) {
	kv, err := Open(t.TempDir())
	require.NoError(t, err)

	var out string
	ok, err := kv.Get("ui", "missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	kv, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, kv.Put("filters", "state", map[string]int{"minHolders": 100}))

	reopened, err := Open(dir)
	require.NoError(t, err)

	var got map[string]int
	ok, err := reopened.Get("filters", "state", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 100, got["minHolders"])
}

func TestKVOverwrite(t *testing.T) {
	kv, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, kv.Put("s", "k", 1))
	require.NoError(t, kv.Put("s", "k", 2))

	var got int
	ok, err := kv.Get("s", "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestKVDeleteAndKeys(t *testing.T) {
	kv, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, kv.Put("hist", "0xa", 1))
	require.NoError(t, kv.Put("hist", "0xb", 2))

	keys, err := kv.Keys("hist")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"0xa", "0xb"}, keys)

	require.NoError(t, kv.Delete("hist", "0xa"))
	keys, err = kv.Keys("hist")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xb"}, keys)
}

func TestKVCorruptScopeFileIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	kv, err := Open(dir)
	require.NoError(t, err)

	var out int
	ok, err := kv.Get("bad", "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}
