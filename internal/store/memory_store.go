package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/utils"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory for the single-process
// deployment mode. Values are held as marshalled JSON so reads hand back
// independent copies, exactly like the Redis backend does.
type MemoryStore struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry
	ttl time.Duration

	now func() time.Time // overridable in tests
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		m:   make(map[string]memoryEntry),
		ttl: ttl,
		now: time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, sess *models.Session) error {
	return s.Put(ctx, sess)
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	e, ok := s.m[id]
	s.mu.RUnlock()

	if !ok {
		return nil, utils.ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()
		return nil, utils.ErrNotFound
	}

	var sess models.Session
	if err := json.Unmarshal(e.data, &sess); err != nil {
		// corrupt entry: drop it and report a miss
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()
		return nil, utils.ErrNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Put(_ context.Context, sess *models.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.m[sess.SessionID] = memoryEntry{data: b, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.m))
	for id, e := range s.m {
		if now.After(e.expiresAt) {
			delete(s.m, id)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
