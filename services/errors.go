package services

import "errors"

var (
	ErrCompetitionNotFound = errors.New("services: competition not found")
	ErrSubmissionNotFound  = errors.New("services: submission not found")
	ErrUserNotFound        = errors.New("services: user not found")
	ErrUserExists          = errors.New("services: username or email already registered")
	ErrNotParticipant      = errors.New("services: user is not a participant")
	ErrForbidden           = errors.New("services: forbidden")
	ErrDateOutsideWindow   = errors.New("services: date outside competition window")
	ErrInvalidQuantity     = errors.New("services: quantity must be positive")
	ErrEvidenceDisabled    = errors.New("services: evidence uploads are not configured")
)
