// Package memory is the default artifact store driver: a process-local map
// guarded by a single RWMutex. Everything is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/ssop/internal/ssop/store"
)

// entry keeps the insertion sequence so secondary lookups can return the
// oldest match deterministically.
type entry struct {
	seq       uint64
	namespace string
	rec       store.Record
}

// Store implements store.Store in memory.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	seq     uint64
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for exp stamping and checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Upsert(_ context.Context, namespace, id string, payload store.Payload, ttl time.Duration) error {
	if err := store.ValidateKey(namespace, id); err != nil {
		return err
	}
	rec, err := store.Prepare(payload, ttl, s.now())
	if err != nil {
		return err
	}

	key := store.Key(namespace, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.rec = rec
		return nil
	}
	s.seq++
	s.entries[key] = &entry{seq: s.seq, namespace: namespace, rec: rec}
	return nil
}

func (s *Store) Find(_ context.Context, namespace, id string) (store.Payload, error) {
	now := s.now()

	s.mu.RLock()
	e, ok := s.entries[store.Key(namespace, id)]
	var raw []byte
	if ok && !store.Expired(e.rec.Exp, now) {
		raw = e.rec.Raw
	}
	s.mu.RUnlock()

	if raw == nil {
		return nil, store.ErrNotFound
	}
	return store.ParsePayload(raw)
}

func (s *Store) FindByUID(_ context.Context, namespace, uid string) (store.Payload, error) {
	if uid == "" {
		return nil, store.ErrNotFound
	}
	return s.findFirst(namespace, func(r store.Record) bool { return r.UID == uid })
}

func (s *Store) FindByUserCode(_ context.Context, namespace, userCode string) (store.Payload, error) {
	if userCode == "" {
		return nil, store.ErrNotFound
	}
	return s.findFirst(namespace, func(r store.Record) bool { return r.UserCode == userCode })
}

func (s *Store) findFirst(namespace string, match func(store.Record) bool) (store.Payload, error) {
	now := s.now()

	s.mu.RLock()
	var best *entry
	for _, e := range s.entries {
		if e.namespace != namespace || !match(e.rec) || store.Expired(e.rec.Exp, now) {
			continue
		}
		if best == nil || e.seq < best.seq {
			best = e
		}
	}
	var raw []byte
	if best != nil {
		raw = best.rec.Raw
	}
	s.mu.RUnlock()

	if raw == nil {
		return nil, store.ErrNotFound
	}
	return store.ParsePayload(raw)
}

func (s *Store) Destroy(_ context.Context, namespace, id string) error {
	s.mu.Lock()
	delete(s.entries, store.Key(namespace, id))
	s.mu.Unlock()
	return nil
}

func (s *Store) Consume(_ context.Context, namespace, id string) (bool, error) {
	key := store.Key(namespace, id)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	delete(s.entries, key)
	return !store.Expired(e.rec.Exp, now), nil
}

func (s *Store) RevokeByGrantID(_ context.Context, namespace, grantID string) (int, error) {
	if grantID == "" {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, e := range s.entries {
		if e.namespace == namespace && e.rec.GrantID == grantID {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.mu.Unlock()
	return nil
}

// DeleteExpired collects expired keys under the read lock, then deletes them
// under the write lock, re-checking each one in case it was rewritten.
func (s *Store) DeleteExpired(_ context.Context) (int, error) {
	now := s.now()

	s.mu.RLock()
	var expired []string
	for key, e := range s.entries {
		if store.Expired(e.rec.Exp, now) {
			expired = append(expired, key)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, key := range expired {
		if e, ok := s.entries[key]; ok && store.Expired(e.rec.Exp, now) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (*Store) Ping(context.Context) error { return nil }
func (*Store) Close() error               { return nil }

var _ store.Store = (*Store)(nil)
