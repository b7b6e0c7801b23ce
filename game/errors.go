package game

import "errors"

var (
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrNotChallenged       = errors.New("actor is not the challenged participant")
	ErrWrongState          = errors.New("match is not in the required state")
	ErrNotParticipant      = errors.New("actor is not a participant of this match")
	ErrInvalidCard         = errors.New("invalid card")
	ErrAlreadySubmitted    = errors.New("card already submitted this round")
)
