package models

import "fmt"

// Vote is one row of the vote ledger, written exactly once on admission and
// never mutated afterwards. CreatedAt doubles as the cast timestamp.
//
// The partial unique index is the single serialization point for
// authenticated voters: two concurrent commits with the same poll and
// account cannot both land. Anonymous rows (nil AccountID) stay out of the
// index since their dedup window is a policy knob, not a constraint.
type Vote struct {
	BaseModel

	PollID    uint    `json:"poll_id" gorm:"index;uniqueIndex:uq_votes_poll_account,priority:1"`
	OptionID  string  `json:"option_id"`
	AccountID *uint   `json:"account_id" gorm:"uniqueIndex:uq_votes_poll_account,priority:2,where:account_id IS NOT NULL"`
	Username  *string `json:"username"`
	VoterIP   string  `json:"voter_ip"`
}

func (v Vote) Anonymous() bool {
	return v.AccountID == nil
}

// DedupKey identifies the at-most-one-vote scope of a cast attempt: the
// account for authenticated voters, the source address for anonymous ones.
type DedupKey struct {
	PollID    uint
	AccountID *uint
	VoterIP   string
}

func (k DedupKey) Anonymous() bool {
	return k.AccountID == nil
}

// CacheKey renders the membership cache key for this dedup scope.
func (k DedupKey) CacheKey() string {
	if k.AccountID != nil {
		return fmt.Sprintf("votes:membership#%d:account#%d", k.PollID, *k.AccountID)
	}
	return fmt.Sprintf("votes:membership#%d:ip#%s", k.PollID, k.VoterIP)
}

func TallyCacheKey(pollID uint, optionID string) string {
	return fmt.Sprintf("votes:tally#%d:%s", pollID, optionID)
}

func ResultsCacheKey(pollID uint) string {
	return fmt.Sprintf("votes:results#%d", pollID)
}
