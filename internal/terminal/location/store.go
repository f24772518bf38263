package location

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	activeLocationKey = "terminal:active_location"
	sessionTTL        = 12 * time.Hour
)

// Store holds the active location id, persisted for the working session
// so a terminal restart picks up where the operator left off.
type Store struct {
	mu  sync.RWMutex
	rdb *redis.Client
	id  string
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Load restores the persisted location, if any.
func (s *Store) Load(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	id, err := s.rdb.Get(ctx, activeLocationKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
	return nil
}

func (s *Store) Set(ctx context.Context, id string) error {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
	if s.rdb == nil {
		return nil
	}
	if id == "" {
		return s.rdb.Del(ctx, activeLocationKey).Err()
	}
	return s.rdb.Set(ctx, activeLocationKey, id, sessionTTL).Err()
}

func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}
