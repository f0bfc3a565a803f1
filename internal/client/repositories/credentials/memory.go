package credentials

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/models"
)

// MemoryStore keeps the session for the lifetime of the process only.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}}
}

func (s *MemoryStore) Save(_ context.Context, identity *models.Identity, accessToken, refreshToken string, expiresAt time.Time) error {
	values, err := encode(identity, accessToken, refreshToken, expiresAt)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(context.Context) (*models.StoredSession, error) {
	s.mu.Lock()
	values := maps.Clone(s.values)
	s.mu.Unlock()
	return decode(values), nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.values = map[string][]byte{}
	s.mu.Unlock()
	return nil
}

// Put sets a raw key. Tests use it to build partial records.
func (s *MemoryStore) Put(key string, value []byte) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}
