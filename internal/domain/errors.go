package domain

import "errors"

var (
	// ErrInvalidScope is returned when a recalculation request does not
	// supply exactly one scope identifier.
	ErrInvalidScope = errors.New("recalculation scope must name exactly one of participant, group, or organization")
	// ErrAssessmentNotFound indicates the assessment content could not be loaded.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrParticipantNotFound indicates a scoped participant does not exist.
	ErrParticipantNotFound = errors.New("participant not found")
)
