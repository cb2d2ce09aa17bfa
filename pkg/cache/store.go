package cache

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ErrNotFound is returned by a Backend when no value is stored under a key
var ErrNotFound = errors.New("cache entry not found")

// Backend is a key-value byte store
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Envelope wraps a cached payload with the schema version and capture time
type Envelope struct {
	Version   int             `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v
func (e *Envelope) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("cache envelope has no payload")
	}
	return json.Unmarshal(e.Payload, v)
}

// Store persists versioned, timestamped datasets on top of a Backend.
// Persistence is best effort: write failures are logged, never returned.
type Store struct {
	backend Backend
	version int
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for timestamps and freshness
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store writing envelopes at the given schema version
func NewStore(backend Backend, version int, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		version: version,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save wraps payload in an envelope stamped with the current version and time and persists it
func (s *Store) Save(key string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("Failed to encode cache payload", zap.String("key", key), zap.Error(err))
		return
	}

	raw, err := json.Marshal(Envelope{
		Version:   s.version,
		Timestamp: s.now().UTC(),
		Payload:   data,
	})
	if err != nil {
		s.logger.Warn("Failed to encode cache envelope", zap.String("key", key), zap.Error(err))
		return
	}

	if err := s.backend.Set(key, raw); err != nil {
		s.logger.Warn("Failed to persist cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	s.logger.Debug("Cache entry saved", zap.String("key", key), zap.Int("bytes", len(raw)))
}

// Load returns the envelope stored under key, or nil when it is missing,
// unreadable, or written by a different schema version
func (s *Store) Load(key string) *Envelope {
	raw, err := s.backend.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("Failed to read cache entry", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.Debug("Discarding malformed cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}

	if env.Version != s.version {
		s.logger.Debug("Discarding cache entry from another schema version",
			zap.String("key", key),
			zap.Int("entry_version", env.Version),
			zap.Int("current_version", s.version))
		return nil
	}

	return &env
}

// IsFresh reports whether env carries the current version and is younger than ttl
func (s *Store) IsFresh(env *Envelope, ttl time.Duration) bool {
	if env == nil || env.Version != s.version {
		return false
	}
	return s.now().Sub(env.Timestamp) < ttl
}

// Delete removes the entry stored under key
func (s *Store) Delete(key string) {
	if err := s.backend.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("Failed to delete cache entry", zap.String("key", key), zap.Error(err))
	}
}
