package services

import "errors"

// Domain errors surfaced to handlers. Everything here is recoverable: the
// handler maps it to a status code and a user-facing message, the client may
// retry. Raw storage errors are never returned across this boundary.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrMessageNotFound = errors.New("message not found")

	ErrAlreadyInMatch  = errors.New("user already has an active match")
	ErrMatchNotActive  = errors.New("match is not active")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrDuplicateRating = errors.New("judge already rated this message")
	ErrNotAJudge       = errors.New("user is not a judge of this match")
	ErrNotAPlayer      = errors.New("user is not a player in this match")

	ErrTimeExpired = errors.New("match time limit exceeded")

	ErrEmptyMessage   = errors.New("message content is empty")
	ErrMessageTooLong = errors.New("message content exceeds maximum length")
	ErrInvalidTier    = errors.New("invalid rating tier")
	ErrInvalidRole    = errors.New("match_type must be 'player' or 'judge'")
)
