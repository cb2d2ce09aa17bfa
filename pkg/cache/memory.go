package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/coocood/freecache"
)

// minMemoryBytes is the smallest cache freecache will allocate
const minMemoryBytes = 512 * 1024

// MemoryBackend keeps entries in a process-local freecache.
// freecache caps an entry at 1/1024 of the cache size, so values are split into chunks.
type MemoryBackend struct {
	cache     *freecache.Cache
	chunkSize int
}

// NewMemoryBackend allocates a cache of sizeBytes
func NewMemoryBackend(sizeBytes int) *MemoryBackend {
	if sizeBytes < minMemoryBytes {
		sizeBytes = minMemoryBytes
	}
	return &MemoryBackend{
		cache: freecache.NewCache(sizeBytes),
		// leave headroom for the entry header and chunk key
		chunkSize: sizeBytes/1024 - 64,
	}
}

// Get reassembles the chunks stored under key
func (m *MemoryBackend) Get(key string) ([]byte, error) {
	header, err := m.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache header: %w", err)
	}
	if len(header) != 8 {
		return nil, fmt.Errorf("corrupt cache header for %s", key)
	}

	size := int(binary.BigEndian.Uint64(header))
	value := make([]byte, 0, size)
	for i := 0; len(value) < size; i++ {
		chunk, err := m.cache.Get(chunkKey(key, i))
		if err != nil {
			// A chunk was evicted under memory pressure; the entry is gone
			return nil, ErrNotFound
		}
		value = append(value, chunk...)
	}

	if len(value) != size {
		return nil, fmt.Errorf("cache entry %s has %d bytes, expected %d", key, len(value), size)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (m *MemoryBackend) Set(key string, value []byte) error {
	m.Delete(key)

	for i, off := 0, 0; off < len(value); i, off = i+1, off+m.chunkSize {
		end := min(off+m.chunkSize, len(value))
		if err := m.cache.Set(chunkKey(key, i), value[off:end], 0); err != nil {
			return fmt.Errorf("failed to store cache chunk %d: %w", i, err)
		}
	}

	header := make([]byte, 8)
	binary.BigEndian.PutUint64(header, uint64(len(value)))
	if err := m.cache.Set([]byte(key), header, 0); err != nil {
		return fmt.Errorf("failed to store cache header: %w", err)
	}
	return nil
}

// Delete removes key and its chunks
func (m *MemoryBackend) Delete(key string) error {
	header, err := m.cache.Get([]byte(key))
	if err != nil {
		return ErrNotFound
	}
	m.cache.Del([]byte(key))

	if len(header) == 8 {
		size := int(binary.BigEndian.Uint64(header))
		for i := 0; i*m.chunkSize < size; i++ {
			m.cache.Del(chunkKey(key, i))
		}
	}
	return nil
}

func chunkKey(key string, i int) []byte {
	return []byte(key + "#" + strconv.Itoa(i))
}
