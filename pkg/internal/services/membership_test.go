package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/eko/gocache/lib/v4/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secvote/secvote/pkg/internal/models"
)

// memStore is a deterministic store.StoreInterface for tests; the real
// backends (ristretto, redis) admit and expire asynchronously.
type memStore struct {
	mu   sync.Mutex
	data map[string]any
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		data: map[string]any{},
		ttls: map[string]time.Duration{},
	}
}

func (s *memStore) Get(_ context.Context, key any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key.(string)]
	if !ok {
		return nil, store.NotFoundWithCause(errors.New("value not found"))
	}
	return val, nil
}

func (s *memStore) GetWithTTL(ctx context.Context, key any) (any, time.Duration, error) {
	val, err := s.Get(ctx, key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return val, s.ttls[key.(string)], err
}

func (s *memStore) Set(_ context.Context, key any, value any, options ...store.Option) error {
	opts := store.ApplyOptions(options...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key.(string)] = value
	s.ttls[key.(string)] = opts.Expiration
	return nil
}

func (s *memStore) Delete(_ context.Context, key any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key.(string))
	delete(s.ttls, key.(string))
	return nil
}

func (s *memStore) Invalidate(context.Context, ...store.InvalidateOption) error {
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string]any{}
	s.ttls = map[string]time.Duration{}
	return nil
}

func (s *memStore) GetType() string {
	return "memory"
}

func TestMembershipCacheMarksAndReads(t *testing.T) {
	st := newMemStore()
	cache := NewMembershipCache(st)

	account := uint(7)
	authKey := models.DedupKey{PollID: 1, AccountID: &account, VoterIP: "10.0.0.1"}
	anonKey := models.DedupKey{PollID: 1, VoterIP: "10.0.0.1"}

	assert.False(t, cache.HasVoted(context.Background(), authKey))

	cache.MarkVoted(context.Background(), authKey, 0)
	assert.True(t, cache.HasVoted(context.Background(), authKey))
	// Same poll and address, different scope.
	assert.False(t, cache.HasVoted(context.Background(), anonKey))

	cache.MarkVoted(context.Background(), anonKey, time.Hour)
	assert.True(t, cache.HasVoted(context.Background(), anonKey))
	assert.Equal(t, time.Hour, st.ttls["votes:membership#1:ip#10.0.0.1"])
	assert.Equal(t, time.Duration(0), st.ttls["votes:membership#1:account#7"])
}

func TestMembershipCacheTallies(t *testing.T) {
	st := newMemStore()
	cache := NewMembershipCache(st)

	cache.BumpTally(context.Background(), 1, "10")
	cache.BumpTally(context.Background(), 1, "10")
	cache.BumpTally(context.Background(), 1, "11")

	val, err := st.Get(context.Background(), models.TallyCacheKey(1, "10"))
	require.NoError(t, err)
	assert.Equal(t, "2", val)

	val, err = st.Get(context.Background(), models.TallyCacheKey(1, "11"))
	require.NoError(t, err)
	assert.Equal(t, "1", val)
}

func TestMembershipCacheTallyIsBestEffort(t *testing.T) {
	st := newMemStore()
	cache := NewMembershipCache(st)

	// Concurrent bumps race through get-then-set, so some increments may
	// be lost. The counter must still land somewhere sane and never fail.
	const bumps = 32
	var wg sync.WaitGroup
	for i := 0; i < bumps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.BumpTally(context.Background(), 1, "10")
		}()
	}
	wg.Wait()

	val, err := st.Get(context.Background(), models.TallyCacheKey(1, "10"))
	require.NoError(t, err)
	count, err := strconv.ParseInt(val.(string), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(1))
	assert.LessOrEqual(t, count, int64(bumps))
}

func TestDedupKeyCacheKeys(t *testing.T) {
	account := uint(42)
	assert.Equal(t, "votes:membership#9:account#42",
		models.DedupKey{PollID: 9, AccountID: &account, VoterIP: "10.0.0.1"}.CacheKey())
	assert.Equal(t, "votes:membership#9:ip#10.0.0.1",
		models.DedupKey{PollID: 9, VoterIP: "10.0.0.1"}.CacheKey())
}
