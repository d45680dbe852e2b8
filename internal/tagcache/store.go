package tagcache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var bucketTags = []byte("tags")

// Store is the persisted id -> tags mapping. The backing file is opened and
// read on first use; writes stay in memory until Persist.
type Store struct {
	log  zerolog.Logger
	path string

	mu     sync.RWMutex
	db     *bolt.DB
	loaded bool
	tags   map[string][]string
	dirty  map[string]struct{}
}

var _ domain.TagCache = (*Store)(nil)

// NewStore creates a tag cache backed by the bolt file at path. An empty path
// keeps the cache in memory only.
func NewStore(log zerolog.Logger, path string) *Store {
	return &Store{
		log:   log.With().Str("module", "tagcache").Logger(),
		path:  path,
		tags:  make(map[string][]string),
		dirty: make(map[string]struct{}),
	}
}

// Load opens the backing file and reads every entry. Calling it again is a
// no-op.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	if s.path == "" {
		s.loaded = true
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(err, "create tag cache directory")
	}

	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return errors.Wrap(err, "failed to open tag cache")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketTags)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var tags []string
			if err := json.Unmarshal(v, &tags); err != nil {
				s.log.Warn().Err(err).Str("id", string(k)).Msg("dropping unreadable tag entry")
				return nil
			}
			s.tags[string(k)] = tags
			return nil
		})
	})
	if err != nil {
		db.Close()
		return errors.Wrap(err, "failed to read tag cache")
	}

	s.db = db
	s.loaded = true
	s.log.Debug().Int("entries", len(s.tags)).Msg("tag cache loaded")
	return nil
}

// Get returns the cached tags for id, loading the cache on first use.
func (s *Store) Get(ctx context.Context, id string) ([]string, bool) {
	s.mu.RLock()
	if s.loaded {
		tags, ok := s.tags[id]
		s.mu.RUnlock()
		return tags, ok
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		s.log.Warn().Err(err).Msg("tag cache unavailable")
	}
	tags, ok := s.tags[id]
	return tags, ok
}

// Put records tags for id.
func (s *Store) Put(ctx context.Context, id string, tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		s.log.Warn().Err(err).Msg("tag cache unavailable")
	}
	s.tags[id] = tags
	s.dirty[id] = struct{}{}
}

// Persist writes entries added since the last call.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.dirty) == 0 || s.db == nil {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTags)
		for id := range s.dirty {
			data, err := json.Marshal(s.tags[id])
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to persist tag cache")
	}

	s.log.Debug().Int("entries", len(s.dirty)).Msg("tag cache persisted")
	s.dirty = make(map[string]struct{})
	return nil
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tags)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.loaded = false
	s.tags = make(map[string][]string)
	return err
}
