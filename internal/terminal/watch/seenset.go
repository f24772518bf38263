package watch

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// SeenSetCapacity bounds how many notified ids are remembered per watcher
// kind and location. Inserting past the bound evicts the oldest ids.
const SeenSetCapacity = 400

// seenTTL keeps seen sets for the working session only; they are not
// meant to survive into the next day's trading.
const seenTTL = 12 * time.Hour

// SeenSet records which externally-created records were already surfaced
// to the operator. Seen-ness is monotonic except for capacity eviction.
type SeenSet interface {
	Contains(ctx context.Context, id string) (bool, error)
	MarkSeen(ctx context.Context, id string) error
}

// RedisSeenSet is the terminal's durable seen set, keyed per watcher kind
// and location so two locations never share notification state.
type RedisSeenSet struct {
	rdb *redis.Client
	key string
}

func NewRedisSeenSet(rdb *redis.Client, kind, locationID string) *RedisSeenSet {
	return &RedisSeenSet{rdb: rdb, key: "seen:" + kind + "_" + locationID}
}

func (s *RedisSeenSet) Contains(ctx context.Context, id string) (bool, error) {
	_, err := s.rdb.LPos(ctx, s.key, id, redis.LPosArgs{}).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisSeenSet) MarkSeen(ctx context.Context, id string) error {
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, s.key, id)
	pipe.LTrim(ctx, s.key, 0, SeenSetCapacity-1)
	pipe.Expire(ctx, s.key, seenTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// MemorySeenSet keeps the same contract in process memory. Used in tests
// and when the terminal runs without Redis.
type MemorySeenSet struct {
	mu    sync.Mutex
	order []string
	ids   map[string]struct{}
}

func NewMemorySeenSet() *MemorySeenSet {
	return &MemorySeenSet{ids: map[string]struct{}{}}
}

func (s *MemorySeenSet) Contains(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok, nil
}

func (s *MemorySeenSet) MarkSeen(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return nil
	}
	s.order = append(s.order, id)
	s.ids[id] = struct{}{}
	for len(s.order) > SeenSetCapacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.ids, oldest)
	}
	return nil
}

// Len reports the current number of remembered ids.
func (s *MemorySeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
