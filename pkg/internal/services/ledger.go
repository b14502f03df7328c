package services

import (
	"context"
	"errors"
	"time"

	"github.com/secvote/secvote/pkg/internal/models"
	"gorm.io/gorm"
)

// VoteLedger is the authoritative store of cast votes. FindVote and
// CommitVote serve the admission path; the remaining reads back the result
// surfaces. Implementations must reject a second commit for the same
// authenticated dedup key, even under concurrent writers.
type VoteLedger interface {
	// FindVote returns the latest vote matching the dedup key, or
	// ErrVoteNotFound. A non-zero since narrows the search to votes cast at
	// or after that instant (the anonymous cool-down window).
	FindVote(ctx context.Context, key models.DedupKey, since time.Time) (models.Vote, error)
	// CommitVote appends a new vote, returning ErrDuplicateVote when the
	// storage-level uniqueness constraint rejects it.
	CommitVote(ctx context.Context, vote *models.Vote) error
	ListVotesForPoll(ctx context.Context, pollID uint) ([]models.Vote, error)
	ListVotesForAccount(ctx context.Context, accountID uint, take int, offset int) ([]models.Vote, int64, error)
	ListVotesSince(ctx context.Context, since time.Time) ([]models.Vote, error)
	Stats(ctx context.Context) (models.VoteStats, error)
}

type voteLedger struct {
	db *gorm.DB
}

func NewVoteLedger(db *gorm.DB) VoteLedger {
	return &voteLedger{db: db}
}

func (r *voteLedger) FindVote(ctx context.Context, key models.DedupKey, since time.Time) (models.Vote, error) {
	tx := r.db.WithContext(ctx).Where("poll_id = ?", key.PollID)
	if key.AccountID != nil {
		tx = tx.Where("account_id = ?", *key.AccountID)
	} else {
		tx = tx.Where("account_id IS NULL AND voter_ip = ?", key.VoterIP)
	}
	if !since.IsZero() {
		tx = tx.Where("created_at >= ?", since)
	}

	var vote models.Vote
	if err := tx.Order("created_at DESC").First(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return vote, ErrVoteNotFound
		}
		return vote, err
	}
	return vote, nil
}

func (r *voteLedger) CommitVote(ctx context.Context, vote *models.Vote) error {
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateVote
		}
		return err
	}
	return nil
}

func (r *voteLedger) ListVotesForPoll(ctx context.Context, pollID uint) ([]models.Vote, error) {
	var votes []models.Vote
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("created_at ASC").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteLedger) ListVotesForAccount(ctx context.Context, accountID uint, take int, offset int) ([]models.Vote, int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("account_id = ?", accountID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var votes []models.Vote
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(take).Offset(offset).
		Find(&votes).Error; err != nil {
		return nil, 0, err
	}
	return votes, count, nil
}

func (r *voteLedger) ListVotesSince(ctx context.Context, since time.Time) ([]models.Vote, error) {
	var votes []models.Vote
	if err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteLedger) Stats(ctx context.Context) (models.VoteStats, error) {
	var stats models.VoteStats
	if err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Count(&stats.TotalVotes).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Distinct("poll_id").
		Count(&stats.TotalPolls).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("account_id IS NOT NULL").
		Distinct("account_id").
		Count(&stats.TotalVoters).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
