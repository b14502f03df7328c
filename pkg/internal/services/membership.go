package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog/log"
	"github.com/secvote/secvote/pkg/internal/models"
)

// MembershipCache is the lossy accelerator in front of the ledger. Presence
// of an entry means a vote was recorded at write time; absence means
// nothing. Every method is best-effort: a broken cache only slows the vote
// path down, it never decides it.
type MembershipCache interface {
	HasVoted(ctx context.Context, key models.DedupKey) bool
	// MarkVoted records the membership fact; ttl <= 0 keeps the entry until
	// the store evicts it on its own.
	MarkVoted(ctx context.Context, key models.DedupKey, ttl time.Duration)
	// BumpTally increments the advisory per-option counter. Drift against
	// the ledger is expected and tolerated: the counter can sag from
	// eviction and from increments lost to concurrent read-modify-write.
	BumpTally(ctx context.Context, pollID uint, optionID string)
}

type membershipCache struct {
	kv *cache.Cache[string]
}

func NewMembershipCache(st store.StoreInterface) MembershipCache {
	return &membershipCache{kv: cache.New[string](st)}
}

func (m *membershipCache) HasVoted(ctx context.Context, key models.DedupKey) bool {
	val, err := m.kv.Get(ctx, key.CacheKey())
	return err == nil && val != ""
}

func (m *membershipCache) MarkVoted(ctx context.Context, key models.DedupKey, ttl time.Duration) {
	opts := []store.Option{
		store.WithTags([]string{fmt.Sprintf("poll#%d", key.PollID)}),
	}
	if ttl > 0 {
		opts = append(opts, store.WithExpiration(ttl))
	}
	if err := m.kv.Set(ctx, key.CacheKey(), "1", opts...); err != nil {
		log.Warn().Err(err).Str("key", key.CacheKey()).Msg("An error occurred when marking vote membership...")
	}
}

func (m *membershipCache) BumpTally(ctx context.Context, pollID uint, optionID string) {
	key := models.TallyCacheKey(pollID, optionID)

	var current int64
	if val, err := m.kv.Get(ctx, key); err == nil {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			current = parsed
		}
	}

	err := m.kv.Set(ctx, key, strconv.FormatInt(current+1, 10),
		store.WithTags([]string{fmt.Sprintf("poll#%d", pollID)}),
	)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("An error occurred when bumping vote tally...")
	}
}
