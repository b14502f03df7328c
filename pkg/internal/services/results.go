package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/samber/lo"
	"github.com/secvote/secvote/pkg/internal/models"
)

// ResultAggregator folds ledger rows into poll summaries. Summaries may be
// served up to cacheTTL stale; the ledger stays the recomputable ground
// truth.
type ResultAggregator struct {
	ledger  VoteLedger
	marshal *marshaler.Marshaler
	ttl     time.Duration
}

// NewResultAggregator builds the read side over the given ledger. A nil
// store disables summary caching entirely.
func NewResultAggregator(ledger VoteLedger, st store.StoreInterface, ttl time.Duration) *ResultAggregator {
	if ttl <= 0 || ttl > 30*time.Second {
		ttl = 30 * time.Second
	}
	agg := &ResultAggregator{ledger: ledger, ttl: ttl}
	if st != nil {
		agg.marshal = marshaler.New(cache.New[any](st))
	}
	return agg
}

// Aggregate returns the per-option counts and percentages for a poll. A
// poll without votes yields an empty, valid summary.
func (a *ResultAggregator) Aggregate(ctx context.Context, pollID uint) (models.ResultSummary, error) {
	if a.marshal != nil {
		if cached, err := a.marshal.Get(ctx, models.ResultsCacheKey(pollID), new(models.ResultSummary)); err == nil {
			return *cached.(*models.ResultSummary), nil
		}
	}

	votes, err := a.ledger.ListVotesForPoll(ctx, pollID)
	if err != nil {
		return models.ResultSummary{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	summary := summarizeVotes(pollID, votes, false)

	if a.marshal != nil {
		_ = a.marshal.Set(ctx, models.ResultsCacheKey(pollID), summary,
			store.WithExpiration(a.ttl),
			store.WithTags([]string{fmt.Sprintf("poll#%d", pollID)}),
		)
	}

	return summary, nil
}

// AggregateDetailed includes the voter roster per option. Never cached; the
// surface is gated to the poll's creator.
func (a *ResultAggregator) AggregateDetailed(ctx context.Context, pollID uint) (models.ResultSummary, error) {
	votes, err := a.ledger.ListVotesForPoll(ctx, pollID)
	if err != nil {
		return models.ResultSummary{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return summarizeVotes(pollID, votes, true), nil
}

func (a *ResultAggregator) OverallStats(ctx context.Context) (models.VoteStats, error) {
	stats, err := a.ledger.Stats(ctx)
	if err != nil {
		return stats, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return stats, nil
}

// Trending ranks polls by vote activity inside the window, most active
// first, at most limit entries.
func (a *ResultAggregator) Trending(ctx context.Context, window time.Duration, limit int) ([]models.TrendingPoll, error) {
	votes, err := a.ledger.ListVotesSince(ctx, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	counts := lo.CountValuesBy(votes, func(vote models.Vote) uint {
		return vote.PollID
	})
	trending := lo.MapToSlice(counts, func(pollID uint, count int) models.TrendingPoll {
		return models.TrendingPoll{PollID: pollID, RecentVotes: int64(count)}
	})
	sort.Slice(trending, func(i, j int) bool {
		if trending[i].RecentVotes != trending[j].RecentVotes {
			return trending[i].RecentVotes > trending[j].RecentVotes
		}
		return trending[i].PollID < trending[j].PollID
	})

	if limit > 0 && len(trending) > limit {
		trending = trending[:limit]
	}
	return trending, nil
}

func summarizeVotes(pollID uint, votes []models.Vote, detailed bool) models.ResultSummary {
	summary := models.ResultSummary{
		PollID:  pollID,
		Results: []models.OptionResult{},
	}
	if len(votes) == 0 {
		return summary
	}

	counts := make(map[string]int64)
	voters := make(map[string][]models.VoterDetail)
	var order []string
	for _, vote := range votes {
		if _, seen := counts[vote.OptionID]; !seen {
			order = append(order, vote.OptionID)
		}
		counts[vote.OptionID]++
		if detailed {
			name := "Anonymous"
			if vote.Username != nil {
				name = *vote.Username
			}
			voters[vote.OptionID] = append(voters[vote.OptionID], models.VoterDetail{
				Username: name,
				VotedAt:  vote.CreatedAt,
			})
		}
	}

	total := int64(len(votes))
	summary.TotalVotes = total
	summary.Results = lo.Map(order, func(optionID string, _ int) models.OptionResult {
		count := counts[optionID]
		return models.OptionResult{
			OptionID:   optionID,
			Votes:      count,
			Percentage: math.Round(float64(count)/float64(total)*10000) / 100,
			Voters:     voters[optionID],
		}
	})
	// Stable so ties keep first-encountered order.
	sort.SliceStable(summary.Results, func(i, j int) bool {
		return summary.Results[i].Votes > summary.Results[j].Votes
	})

	return summary
}
