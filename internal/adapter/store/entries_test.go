package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/berfenger/hassbridge/internal/core/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEntry(id, domain string, created time.Time) flow.Entry {
	return flow.Entry{
		EntryID:   id,
		Domain:    domain,
		Title:     "Living room",
		Data:      map[string]any{"name": "Living room", "endpoint": "http://192.168.1.20:10000/sony"},
		UniqueID:  "uuid:" + id,
		Source:    flow.SOURCE_USER,
		CreatedAt: created,
	}
}

func TestEntryStoreInMemory(t *testing.T) {
	s := NewEntryStore("", zap.NewNop())
	require.NoError(t, s.Load())

	now := time.Now().UTC()
	require.NoError(t, s.Add(testEntry("b", "songpal", now.Add(time.Second))))
	require.NoError(t, s.Add(testEntry("a", "songpal", now)))
	require.NoError(t, s.Add(testEntry("c", "other", now)))

	assert.ErrorIs(t, s.Add(testEntry("a", "songpal", now)), ErrDuplicateEntry)

	entries := s.Entries("songpal")
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].EntryID)
	assert.Equal(t, "b", entries[1].EntryID)
	assert.Len(t, s.Entries(""), 3)

	// returned entries do not alias the stored ones
	entries[0].Data["name"] = "changed"
	e, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Living room", e.Data["name"])

	require.NoError(t, s.UpdateOptions("a", map[string]any{"wake_on_lan": true}))
	e, _ = s.Get("a")
	assert.Equal(t, true, e.Options["wake_on_lan"])

	require.NoError(t, s.Remove("a"))
	_, ok = s.Get("a")
	assert.False(t, ok)
	assert.ErrorIs(t, s.Remove("a"), flow.ErrEntryNotFound)
	assert.ErrorIs(t, s.UpdateOptions("a", nil), flow.ErrEntryNotFound)
}

func TestEntryStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "entries.yaml")

	s := NewEntryStore(path, zap.NewNop())
	require.NoError(t, s.Load())

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Add(testEntry("a", "songpal", created)))
	require.NoError(t, s.UpdateOptions("a", map[string]any{
		"name":           "TV",
		"turn_on_action": "script.tv_on",
		"wake_on_lan":    false,
	}))

	_, err := os.Stat(path)
	require.NoError(t, err)

	reloaded := NewEntryStore(path, zap.NewNop())
	require.NoError(t, reloaded.Load())

	e, ok := reloaded.Get("a")
	require.True(t, ok)
	assert.Equal(t, "songpal", e.Domain)
	assert.Equal(t, "uuid:a", e.UniqueID)
	assert.Equal(t, "http://192.168.1.20:10000/sony", e.Data["endpoint"])
	assert.Equal(t, "script.tv_on", e.Options["turn_on_action"])
	assert.Equal(t, false, e.Options["wake_on_lan"])
	assert.True(t, created.Equal(e.CreatedAt))

	require.NoError(t, reloaded.Remove("a"))

	again := NewEntryStore(path, zap.NewNop())
	require.NoError(t, again.Load())
	assert.Empty(t, again.Entries(""))

	// no temp files left behind
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Base(path), files[0].Name())
}

func TestEntryStoreLoadErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("entries: [: nope"), 0o600))
	assert.Error(t, NewEntryStore(bad, zap.NewNop()).Load())

	future := filepath.Join(dir, "future.yaml")
	require.NoError(t, os.WriteFile(future, []byte("version: 9\nentries: []\n"), 0o600))
	assert.Error(t, NewEntryStore(future, zap.NewNop()).Load())

	assert.NoError(t, NewEntryStore(filepath.Join(dir, "missing.yaml"), zap.NewNop()).Load())
}

func TestStaticScripts(t *testing.T) {
	s := NewStaticScripts([]string{"script.tv_on", " ", "script.amp_on", "script.tv_on"})
	assert.Equal(t, []string{"script.tv_on", "script.amp_on"}, s.ScriptEntityIDs())

	ids := s.ScriptEntityIDs()
	ids[0] = "x"
	assert.Equal(t, "script.tv_on", s.ScriptEntityIDs()[0])

	assert.Empty(t, NewStaticScripts(nil).ScriptEntityIDs())
}
