package models

import "time"

// ResultSummary is the aggregated read model for a poll, recomputed from the
// ledger per request or served from a short-lived cache.
type ResultSummary struct {
	PollID     uint           `json:"poll_id"`
	TotalVotes int64          `json:"total_votes"`
	Results    []OptionResult `json:"results"`
}

type OptionResult struct {
	OptionID   string        `json:"option_id"`
	Votes      int64         `json:"votes"`
	Percentage float64       `json:"percentage"`
	Voters     []VoterDetail `json:"voters,omitempty"`
}

type VoterDetail struct {
	Username string    `json:"username"`
	VotedAt  time.Time `json:"voted_at"`
}

type VoteStats struct {
	TotalVotes  int64 `json:"total_votes"`
	TotalPolls  int64 `json:"total_polls"`
	TotalVoters int64 `json:"total_voters"`
}

type TrendingPoll struct {
	PollID      uint  `json:"poll_id"`
	RecentVotes int64 `json:"recent_votes"`
}
