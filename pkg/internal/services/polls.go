package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/secvote/secvote/pkg/internal/database"
	"github.com/secvote/secvote/pkg/internal/models"
	"gorm.io/gorm"
)

type PollState int8

const (
	PollStateNotFound = PollState(iota)
	PollStateClosed
	PollStateOpen
)

// PollStatus is the oracle's verdict on a poll: whether it exists, still
// accepts votes, and which options are castable.
type PollStatus struct {
	State          PollState
	OptionIDs      []string
	AllowAnonymous bool
}

func (s PollStatus) HasOption(optionID string) bool {
	for _, id := range s.OptionIDs {
		if id == optionID {
			return true
		}
	}
	return false
}

// PollOracle answers poll existence and openness questions for the
// admission path.
type PollOracle interface {
	PollStatus(ctx context.Context, pollID uint) (PollStatus, error)
}

type pollDirectory struct {
	db *gorm.DB
}

func NewPollDirectory(db *gorm.DB) PollOracle {
	return &pollDirectory{db: db}
}

func (d *pollDirectory) PollStatus(ctx context.Context, pollID uint) (PollStatus, error) {
	var poll models.Poll
	if err := d.db.WithContext(ctx).Where("id = ?", pollID).First(&poll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PollStatus{State: PollStateNotFound}, nil
		}
		return PollStatus{}, err
	}

	if poll.IsClosed(time.Now()) {
		return PollStatus{State: PollStateClosed}, nil
	}

	status := PollStatus{
		State:          PollStateOpen,
		OptionIDs:      make([]string, 0, len(poll.Options)),
		AllowAnonymous: poll.AllowAnonymous,
	}
	for _, option := range poll.Options {
		status.OptionIDs = append(status.OptionIDs, option.ID)
	}
	return status, nil
}

func NewPoll(poll models.Poll) (models.Poll, error) {
	for idx, option := range poll.Options {
		if len(option.ID) == 0 {
			option.ID = uuid.NewString()
			poll.Options[idx] = option
		}
	}

	if err := database.C.Create(&poll).Error; err != nil {
		return poll, err
	}
	return poll, nil
}

func UpdatePoll(poll models.Poll) (models.Poll, error) {
	for idx, option := range poll.Options {
		if len(option.ID) == 0 {
			option.ID = uuid.NewString()
			poll.Options[idx] = option
		}
	}

	if err := database.C.Save(&poll).Error; err != nil {
		return poll, err
	}
	return poll, nil
}

// ClosePoll stops a poll from accepting further votes immediately by
// stamping its expiry with the current time.
func ClosePoll(poll models.Poll) (models.Poll, error) {
	now := time.Now()
	poll.ExpiredAt = &now

	if err := database.C.Model(&poll).Update("expired_at", now).Error; err != nil {
		return poll, err
	}
	return poll, nil
}

func GetPoll(id uint) (models.Poll, error) {
	var poll models.Poll
	if err := database.C.Where("id = ?", id).First(&poll).Error; err != nil {
		return poll, err
	}
	return poll, nil
}

func ListPolls(take int, offset int) ([]models.Poll, int64, error) {
	var count int64
	if err := database.C.Model(&models.Poll{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var polls []models.Poll
	if err := database.C.
		Order("created_at DESC").
		Limit(take).Offset(offset).
		Find(&polls).Error; err != nil {
		return nil, 0, err
	}
	return polls, count, nil
}

func DeletePoll(poll models.Poll) error {
	return database.C.Delete(&poll).Error
}

func GetPollMetric(poll models.Poll) models.PollMetric {
	var answers []models.Vote
	if err := database.C.Where("poll_id = ?", poll.ID).Find(&answers).Error; err != nil {
		return models.PollMetric{}
	}

	byOptions := make(map[string]int64)
	for _, answer := range answers {
		byOptions[answer.OptionID]++
	}

	byOptionsPercentage := make(map[string]float64)
	for _, option := range poll.Options {
		if val, ok := byOptions[option.ID]; ok {
			byOptionsPercentage[option.ID] = float64(val) / float64(len(answers))
		}
	}

	return models.PollMetric{
		TotalVotes:          int64(len(answers)),
		ByOptions:           byOptions,
		ByOptionsPercentage: byOptionsPercentage,
	}
}
