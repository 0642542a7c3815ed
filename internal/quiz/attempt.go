// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quiz

import (
	"errors"
	"fmt"
)

// State is the position of an Attempt in its lifecycle.
type State string

const (
	// Unanswered is the state of a fresh or reset attempt.
	Unanswered State = "unanswered"

	// Selected means an option is chosen but not yet graded.
	Selected State = "selected"

	// Graded means Submit ran; Outcome holds the result.
	Graded State = "graded"
)

var (
	// ErrNothingSelected is returned by Submit before any option is chosen.
	ErrNothingSelected = errors.New("no option selected")

	// ErrAlreadyGraded is returned by Select and Submit once an attempt is graded.
	ErrAlreadyGraded = errors.New("quiz already graded")

	// ErrOptionOutOfRange is returned for an option index outside the payload's options.
	ErrOptionOutOfRange = errors.New("option out of range")
)

// Attempt tracks one reader's progress on the quiz of one article:
// Unanswered -> Selected (re-selectable) -> Graded. Graded only moves on
// through Reset. Attempts are keyed by article, so a fresh article always
// starts Unanswered.
type Attempt struct {
	ArticleID string  `json:"article_id"`
	State     State   `json:"state"`
	Option    int     `json:"option"`
	Outcome   Outcome `json:"outcome,omitempty"`
}

// NewAttempt returns an Unanswered attempt for articleID.
func NewAttempt(articleID string) Attempt {
	return Attempt{ArticleID: articleID, State: Unanswered, Option: -1}
}

// Select records option i of p as the current choice.
func (a *Attempt) Select(p Payload, i int) error {
	if a.State == Graded {
		return ErrAlreadyGraded
	}
	if i < 0 || i >= len(p.Options) {
		return fmt.Errorf("%w: %d of %d", ErrOptionOutOfRange, i, len(p.Options))
	}
	a.Option = i
	a.State = Selected
	return nil
}

// Submit grades the selected option with grade and moves to Graded.
func (a *Attempt) Submit(p Payload, grade Grader) (Outcome, error) {
	switch a.State {
	case Graded:
		return a.Outcome, ErrAlreadyGraded
	case Unanswered:
		return "", ErrNothingSelected
	}
	if a.Option < 0 || a.Option >= len(p.Options) {
		return "", fmt.Errorf("%w: %d of %d", ErrOptionOutOfRange, a.Option, len(p.Options))
	}
	a.Outcome = grade(p.Options[a.Option], p.CorrectAnswer)
	a.State = Graded
	return a.Outcome, nil
}

// Reset returns the attempt to Unanswered so the reader can try again.
func (a *Attempt) Reset() {
	*a = NewAttempt(a.ArticleID)
}

// SelectedOption returns the text of the current choice, or "" when none.
func (a Attempt) SelectedOption(p Payload) string {
	if a.Option < 0 || a.Option >= len(p.Options) {
		return ""
	}
	return p.Options[a.Option]
}
