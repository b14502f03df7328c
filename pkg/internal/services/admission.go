package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/secvote/secvote/pkg/internal/models"
)

type AdmissionConfig struct {
	// AnonymousDedupWindow is the cool-down during which a source address
	// cannot vote twice on the same poll. Policy knob, not a security
	// guarantee: shared addresses and NAT make it weak on purpose.
	AnonymousDedupWindow time.Duration
	// StorageTimeout bounds each ledger round trip; exceeding it surfaces
	// as ErrStorageUnavailable and the whole cast may be retried.
	StorageTimeout time.Duration
}

// AdmissionController decides whether a vote attempt becomes a ledger row.
// It holds explicitly injected handles so the whole path can run against
// fakes; nothing in here reaches for process-wide state.
type AdmissionController struct {
	ledger VoteLedger
	cache  MembershipCache
	oracle PollOracle
	cfg    AdmissionConfig

	now func() time.Time
}

func NewAdmissionController(ledger VoteLedger, cache MembershipCache, oracle PollOracle, cfg AdmissionConfig) *AdmissionController {
	if cfg.AnonymousDedupWindow <= 0 {
		cfg.AnonymousDedupWindow = time.Hour
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = 5 * time.Second
	}
	return &AdmissionController{
		ledger: ledger,
		cache:  cache,
		oracle: oracle,
		cfg:    cfg,
		now:    time.Now,
	}
}

// CastVote admits one vote for an authenticated voter. The account can
// never vote twice on the same poll; the ledger's unique constraint holds
// that line even when two first-time casts race.
func (c *AdmissionController) CastVote(ctx context.Context, pollID uint, optionID string, voter models.Identity, sourceIP string) (models.Vote, error) {
	return c.cast(ctx, pollID, optionID, &voter, sourceIP)
}

// CastAnonymousVote admits one vote keyed on the source address. Unlike the
// authenticated path the block is temporary: once the dedup window passes
// the same address may legitimately produce another ledger row.
func (c *AdmissionController) CastAnonymousVote(ctx context.Context, pollID uint, optionID string, sourceIP string) (models.Vote, error) {
	return c.cast(ctx, pollID, optionID, nil, sourceIP)
}

func (c *AdmissionController) cast(ctx context.Context, pollID uint, optionID string, voter *models.Identity, sourceIP string) (models.Vote, error) {
	var vote models.Vote
	if pollID == 0 || len(optionID) == 0 || len(sourceIP) == 0 {
		return vote, ErrBadRequest
	}

	status, err := c.oracle.PollStatus(ctx, pollID)
	if err != nil {
		return vote, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	switch status.State {
	case PollStateNotFound:
		return vote, ErrPollNotFound
	case PollStateClosed:
		return vote, ErrPollClosed
	}
	if !status.HasOption(optionID) {
		return vote, ErrInvalidOption
	}
	if voter == nil && !status.AllowAnonymous {
		return vote, ErrAnonymousForbidden
	}

	key := models.DedupKey{PollID: pollID, VoterIP: sourceIP}
	if voter != nil {
		key.AccountID = &voter.AccountID
	}

	// Fast path; a hit is trustworthy, a miss means nothing.
	if c.cache.HasVoted(ctx, key) {
		return vote, ErrDuplicateVote
	}

	var since time.Time
	if key.Anonymous() {
		since = c.now().Add(-c.cfg.AnonymousDedupWindow)
	}

	findCtx, cancel := context.WithTimeout(ctx, c.cfg.StorageTimeout)
	prior, err := c.ledger.FindVote(findCtx, key, since)
	cancel()
	if err == nil {
		// Repair the accelerator before rejecting.
		c.cache.MarkVoted(ctx, key, c.membershipTTL(key, prior.CreatedAt))
		return vote, ErrDuplicateVote
	} else if !errors.Is(err, ErrVoteNotFound) {
		return vote, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	vote = models.Vote{
		PollID:   pollID,
		OptionID: optionID,
		VoterIP:  sourceIP,
	}
	if voter != nil {
		vote.AccountID = &voter.AccountID
		vote.Username = &voter.Username
	}

	commitCtx, cancel := context.WithTimeout(ctx, c.cfg.StorageTimeout)
	err = c.ledger.CommitVote(commitCtx, &vote)
	cancel()
	if err != nil {
		if errors.Is(err, ErrDuplicateVote) {
			// Lost the commit race against a concurrent first-time voter.
			return models.Vote{}, ErrDuplicateVote
		}
		return models.Vote{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	// Cache writes happen strictly after the commit; losing them here only
	// costs a future ledger lookup.
	c.cache.MarkVoted(ctx, key, c.membershipTTL(key, vote.CreatedAt))
	c.cache.BumpTally(ctx, pollID, optionID)

	event := log.Info().Uint("poll", pollID).Str("option", optionID)
	if voter != nil {
		event = event.Uint("account", voter.AccountID)
	}
	event.Bool("anonymous", voter == nil).Msg("Vote admitted.")

	return vote, nil
}

// LookupVote reports whether the voter already has a ledger row on the
// given poll, and which one.
func (c *AdmissionController) LookupVote(ctx context.Context, pollID uint, voter models.Identity) (models.Vote, bool, error) {
	key := models.DedupKey{PollID: pollID, AccountID: &voter.AccountID}

	findCtx, cancel := context.WithTimeout(ctx, c.cfg.StorageTimeout)
	defer cancel()

	vote, err := c.ledger.FindVote(findCtx, key, time.Time{})
	if errors.Is(err, ErrVoteNotFound) {
		return vote, false, nil
	} else if err != nil {
		return vote, false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return vote, true, nil
}

// ListAccountVotes pages through a voter's ledger history, newest first.
func (c *AdmissionController) ListAccountVotes(ctx context.Context, voter models.Identity, take int, offset int) ([]models.Vote, int64, error) {
	listCtx, cancel := context.WithTimeout(ctx, c.cfg.StorageTimeout)
	defer cancel()

	votes, count, err := c.ledger.ListVotesForAccount(listCtx, voter.AccountID, take, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return votes, count, nil
}

func (c *AdmissionController) membershipTTL(key models.DedupKey, castAt time.Time) time.Duration {
	if !key.Anonymous() {
		// One account votes once per poll for the poll's lifetime; let the
		// store decide when to evict.
		return 0
	}
	remaining := c.cfg.AnonymousDedupWindow - c.now().Sub(castAt)
	if remaining <= 0 {
		remaining = time.Second
	}
	return remaining
}
