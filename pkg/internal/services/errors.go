package services

import "errors"

// The admission error taxonomy. Handlers translate these to HTTP statuses;
// everything else bubbling out of the vote path is an infrastructure fault
// and gets wrapped in ErrStorageUnavailable.
var (
	ErrBadRequest         = errors.New("poll id and option id are required")
	ErrPollNotFound       = errors.New("poll not found")
	ErrPollClosed         = errors.New("poll has been closed")
	ErrInvalidOption      = errors.New("poll does not have an option like that")
	ErrAnonymousForbidden = errors.New("poll does not accept anonymous votes")
	ErrDuplicateVote      = errors.New("already voted on this poll")
	ErrUnauthenticated    = errors.New("token is invalid or expired")
	ErrStorageUnavailable = errors.New("vote storage unavailable")

	ErrVoteNotFound = errors.New("vote not found")
)
