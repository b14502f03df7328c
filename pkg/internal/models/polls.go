package models

import (
	"time"

	"gorm.io/datatypes"
)

type Poll struct {
	BaseModel

	Title          string                          `json:"title"`
	Description    string                          `json:"description"`
	Options        datatypes.JSONSlice[PollOption] `json:"options"`
	ExpiredAt      *time.Time                      `json:"expired_at"`
	AllowAnonymous bool                            `json:"allow_anonymous"`

	AccountID   uint   `json:"account_id"`
	AccountName string `json:"account_name"`

	Metric PollMetric `json:"metric" gorm:"-"`
}

type PollMetric struct {
	TotalVotes          int64              `json:"total_votes"`
	ByOptions           map[string]int64   `json:"by_options"`
	ByOptionsPercentage map[string]float64 `json:"by_options_percentage"`
}

type PollOption struct {
	ID          string `json:"id"`
	Icon        string `json:"icon"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// IsClosed reports whether the poll stopped accepting votes.
func (p Poll) IsClosed(now time.Time) bool {
	return p.ExpiredAt != nil && !now.Before(*p.ExpiredAt)
}
