package services

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secvote/secvote/pkg/internal/models"
)

func ledgerWithVotes(t *testing.T, pollID uint, perOption map[string]int) *fakeLedger {
	t.Helper()
	ledger := newFakeLedger()
	account := uint(0)
	// Deterministic insertion order so tie-break expectations hold.
	for _, optionID := range []string{"1", "2", "3", "4", "5"} {
		for i := 0; i < perOption[optionID]; i++ {
			account++
			id := account
			name := fmt.Sprintf("voter-%d", id)
			err := ledger.CommitVote(context.Background(), &models.Vote{
				PollID:    pollID,
				OptionID:  optionID,
				AccountID: &id,
				Username:  &name,
				VoterIP:   "10.0.0.1",
			})
			require.NoError(t, err)
		}
	}
	return ledger
}

func TestAggregateCountsAndPercentages(t *testing.T) {
	ledger := ledgerWithVotes(t, 1, map[string]int{"1": 3, "2": 1})
	agg := NewResultAggregator(ledger, nil, 0)

	summary, err := agg.Aggregate(context.Background(), 1)
	require.NoError(t, err)

	assert.EqualValues(t, 4, summary.TotalVotes)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, "1", summary.Results[0].OptionID)
	assert.EqualValues(t, 3, summary.Results[0].Votes)
	assert.Equal(t, 75.0, summary.Results[0].Percentage)
	assert.Equal(t, "2", summary.Results[1].OptionID)
	assert.EqualValues(t, 1, summary.Results[1].Votes)
	assert.Equal(t, 25.0, summary.Results[1].Percentage)
}

func TestAggregateEmptyPollIsValid(t *testing.T) {
	agg := NewResultAggregator(newFakeLedger(), nil, 0)

	summary, err := agg.Aggregate(context.Background(), 42)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.TotalVotes)
	assert.Empty(t, summary.Results)
}

func TestAggregateTiesKeepFirstEncounteredOrder(t *testing.T) {
	ledger := ledgerWithVotes(t, 1, map[string]int{"1": 2, "2": 2, "3": 2})
	agg := NewResultAggregator(ledger, nil, 0)

	summary, err := agg.Aggregate(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, "1", summary.Results[0].OptionID)
	assert.Equal(t, "2", summary.Results[1].OptionID)
	assert.Equal(t, "3", summary.Results[2].OptionID)
}

func TestAggregateServesCachedSummary(t *testing.T) {
	ledger := ledgerWithVotes(t, 1, map[string]int{"1": 2})
	agg := NewResultAggregator(ledger, newMemStore(), 30*time.Second)

	first, err := agg.Aggregate(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, first.TotalVotes)

	// New votes are allowed to stay invisible for up to the cache TTL.
	id := uint(99)
	require.NoError(t, ledger.CommitVote(context.Background(), &models.Vote{
		PollID: 1, OptionID: "1", AccountID: &id, VoterIP: "10.0.0.1",
	}))

	second, err := agg.Aggregate(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.TotalVotes)
}

func TestAggregateDetailedListsVoters(t *testing.T) {
	ledger := ledgerWithVotes(t, 1, map[string]int{"1": 2, "2": 1})
	require.NoError(t, ledger.CommitVote(context.Background(), &models.Vote{
		PollID: 1, OptionID: "1", VoterIP: "203.0.113.9",
	}))
	agg := NewResultAggregator(ledger, nil, 0)

	summary, err := agg.AggregateDetailed(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, "1", summary.Results[0].OptionID)
	require.Len(t, summary.Results[0].Voters, 3)
	assert.Equal(t, "voter-1", summary.Results[0].Voters[0].Username)
	assert.Equal(t, "Anonymous", summary.Results[0].Voters[2].Username)
}

func TestOverallStats(t *testing.T) {
	ledger := ledgerWithVotes(t, 1, map[string]int{"1": 2})
	id := uint(1)
	require.NoError(t, ledger.CommitVote(context.Background(), &models.Vote{
		PollID: 2, OptionID: "1", AccountID: &id, VoterIP: "10.0.0.1",
	}))
	agg := NewResultAggregator(ledger, nil, 0)

	stats, err := agg.OverallStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalVotes)
	assert.EqualValues(t, 2, stats.TotalPolls)
	assert.EqualValues(t, 2, stats.TotalVoters)
}

func TestTrendingRanksByRecentActivity(t *testing.T) {
	ledger := newFakeLedger()
	for poll, votes := range map[uint]int{1: 2, 2: 5, 3: 1} {
		for i := 0; i < votes; i++ {
			require.NoError(t, ledger.CommitVote(context.Background(), &models.Vote{
				PollID: poll, OptionID: "1", VoterIP: fmt.Sprintf("10.0.%d.%d", poll, i),
			}))
		}
	}
	agg := NewResultAggregator(ledger, nil, 0)

	trending, err := agg.Trending(context.Background(), 24*time.Hour, 2)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, uint(2), trending[0].PollID)
	assert.EqualValues(t, 5, trending[0].RecentVotes)
	assert.Equal(t, uint(1), trending[1].PollID)
}

func TestSummarizeVotesProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("summaries are consistent for any tally", prop.ForAll(
		func(counts []uint8) bool {
			var votes []models.Vote
			for option, count := range counts {
				for i := 0; i < int(count); i++ {
					votes = append(votes, models.Vote{
						PollID:   1,
						OptionID: fmt.Sprintf("%d", option+1),
						VoterIP:  "10.0.0.1",
					})
				}
			}

			summary := summarizeVotes(1, votes, false)
			if summary.TotalVotes != int64(len(votes)) {
				return false
			}

			var sumVotes int64
			var sumPct float64
			for idx, result := range summary.Results {
				if result.Percentage < 0 || result.Percentage > 100 {
					return false
				}
				if idx > 0 && result.Votes > summary.Results[idx-1].Votes {
					return false
				}
				sumVotes += result.Votes
				sumPct += result.Percentage
			}
			if sumVotes != summary.TotalVotes {
				return false
			}
			if summary.TotalVotes > 0 && math.Abs(sumPct-100) > 0.11 {
				return false
			}
			return true
		},
		gen.SliceOfN(5, gen.UInt8Range(0, 50)),
	))

	properties.TestingRun(t)
}
