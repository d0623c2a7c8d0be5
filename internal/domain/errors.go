package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRumorNotFound   = errors.New("rumor not found")
	ErrUserFrozen      = errors.New("user is frozen")
	ErrAlreadyVoted    = errors.New("user already voted on this rumor")
	ErrInvalidVoteType = errors.New("invalid vote type")
	ErrEmptyContent    = errors.New("rumor content is empty")
	ErrContentTooLong  = errors.New("rumor content is too long")
	ErrVotingClosed    = errors.New("voting is closed for this rumor")
	ErrNotSettleable   = errors.New("rumor cannot be settled")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrInvalidFilter   = errors.New("invalid feed filter")
)
