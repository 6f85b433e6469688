package adaptive

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionCompleted is returned for any mutating operation on a
	// finalized session.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrNoHintsAvailable is returned when the hint list is exhausted or the
	// attempt gate for the student's ability tier has not been met.
	ErrNoHintsAvailable = errors.New("no hints available")
)

// StaleAnswerError signals an answer submitted for a question that is no
// longer current. The client must re-fetch the current question.
type StaleAnswerError struct {
	SubmittedID string
	CurrentID   string
}

func (e *StaleAnswerError) Error() string {
	return fmt.Sprintf("stale answer: submitted for question %q, current question is %q", e.SubmittedID, e.CurrentID)
}
