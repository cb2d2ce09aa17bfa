package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

// mockBackend is an in-memory map backend that can be told to fail
type mockBackend struct {
	values map[string][]byte
	setErr error
	getErr error
}

func newMockBackend() *mockBackend {
	return &mockBackend{values: make(map[string][]byte)}
}

func (m *mockBackend) Get(key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *mockBackend) Set(key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockBackend) Delete(key string) error {
	if _, ok := m.values[key]; !ok {
		return ErrNotFound
	}
	delete(m.values, key)
	return nil
}

type payload struct {
	Names []string `json:"names"`
}

func TestStore_SaveAndLoad(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(newMockBackend(), 4, zap.NewNop(), WithClock(clock.Now))

	store.Save("members", payload{Names: []string{"Ann", "Bo"}})

	env := store.Load("members")
	require.NotNil(t, env)
	assert.Equal(t, 4, env.Version)
	assert.True(t, env.Timestamp.Equal(clock.now))

	var got payload
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, []string{"Ann", "Bo"}, got.Names)
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(newMockBackend(), 1, zap.NewNop())
	assert.Nil(t, store.Load("nothing"))
}

func TestStore_LoadMalformed(t *testing.T) {
	backend := newMockBackend()
	backend.values["members"] = []byte("{not json")
	store := NewStore(backend, 1, zap.NewNop())

	assert.Nil(t, store.Load("members"))
}

func TestStore_LoadBackendError(t *testing.T) {
	backend := newMockBackend()
	backend.getErr = errors.New("disk on fire")
	store := NewStore(backend, 1, zap.NewNop())

	assert.Nil(t, store.Load("members"))
}

func TestStore_VersionMismatchIsAbsent(t *testing.T) {
	backend := newMockBackend()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	old := NewStore(backend, 3, zap.NewNop(), WithClock(clock.Now))
	old.Save("members", payload{Names: []string{"Ann"}})

	current := NewStore(backend, 4, zap.NewNop(), WithClock(clock.Now))
	assert.Nil(t, current.Load("members"))

	// Even a time-fresh envelope is unusable at the wrong version
	env := old.Load("members")
	require.NotNil(t, env)
	assert.False(t, current.IsFresh(env, time.Hour))
}

func TestStore_SaveNeverFails(t *testing.T) {
	backend := newMockBackend()
	backend.setErr = errors.New("quota exceeded")
	store := NewStore(backend, 1, zap.NewNop())

	assert.NotPanics(t, func() {
		store.Save("members", payload{Names: []string{"Ann"}})
	})
	assert.Nil(t, store.Load("members"))
}

func TestStore_IsFresh(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(newMockBackend(), 2, zap.NewNop(), WithClock(clock.Now))
	ttl := 7 * 24 * time.Hour

	store.Save("members", payload{})
	env := store.Load("members")
	require.NotNil(t, env)

	assert.True(t, store.IsFresh(env, ttl))

	clock.now = clock.now.Add(ttl - time.Second)
	assert.True(t, store.IsFresh(env, ttl))

	clock.now = env.Timestamp.Add(ttl)
	assert.False(t, store.IsFresh(env, ttl), "age equal to ttl is stale")

	assert.False(t, store.IsFresh(nil, ttl))
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(newMockBackend(), 1, zap.NewNop())
	store.Save("members", payload{})
	require.NotNil(t, store.Load("members"))

	store.Delete("members")
	assert.Nil(t, store.Load("members"))

	assert.NotPanics(t, func() { store.Delete("members") })
}

func TestFileBackend_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	defer backend.Close()

	_, err = backend.Get("members")
	assert.ErrorIs(t, err, ErrNotFound)

	value := bytes.Repeat([]byte(`{"firstName":"Ann"}`), 500)
	require.NoError(t, backend.Set("members", value))

	got, err := backend.Get("members")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	// Stored compressed, and no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "members.json.zst", entries[0].Name())
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(value)))

	require.NoError(t, backend.Delete("members"))
	assert.ErrorIs(t, backend.Delete("members"), ErrNotFound)
}

func TestFileBackend_KeysStayInsideDirectory(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Set("../escape", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.Contains(entries[0].Name(), "/"))
}

func TestFileBackend_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "members.json.zst"), []byte("garbage"), 0o644))

	_, err = backend.Get("members")
	assert.Error(t, err)

	// The store treats it as absent
	store := NewStore(backend, 1, zap.NewNop())
	assert.Nil(t, store.Load("members"))
}

func TestMemoryBackend_ChunkedRoundTrip(t *testing.T) {
	backend := NewMemoryBackend(1024 * 1024)

	_, err := backend.Get("members")
	assert.ErrorIs(t, err, ErrNotFound)

	// Larger than a single freecache entry may be
	value := bytes.Repeat([]byte("0123456789"), 1000)
	require.NoError(t, backend.Set("members", value))

	got, err := backend.Get("members")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	shorter := []byte("short")
	require.NoError(t, backend.Set("members", shorter))
	got, err = backend.Get("members")
	require.NoError(t, err)
	assert.Equal(t, shorter, got)

	require.NoError(t, backend.Delete("members"))
	_, err = backend.Get("members")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_WithMemoryBackend(t *testing.T) {
	store := NewStore(NewMemoryBackend(0), 1, zap.NewNop())

	names := make([]string, 500)
	for i := range names {
		names[i] = "Member Name"
	}
	store.Save("members", payload{Names: names})

	env := store.Load("members")
	require.NotNil(t, env)
	var got payload
	require.NoError(t, env.Decode(&got))
	assert.Len(t, got.Names, 500)
}
