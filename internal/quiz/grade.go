// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quiz

import "strings"

// Outcome is the result of grading one answer.
type Outcome string

const (
	// Correct means the selected option carries the answer tag.
	Correct Outcome = "correct"

	// Incorrect covers every other selection, including none.
	Incorrect Outcome = "incorrect"
)

// Grader decides whether the selected option matches the answer letter.
type Grader func(selected, letter string) Outcome

// Tag returns the option tag for an answer letter, e.g. "b" -> "(B)".
// The letter is upper-cased as given; surrounding spaces are kept.
func Tag(letter string) string {
	return "(" + strings.ToUpper(letter) + ")"
}

// Grade reports Correct when the tag of letter appears anywhere in
// selected. A tag repeated later in another option's text also matches;
// use GradeStrict to require the tag at the start.
func Grade(selected, letter string) Outcome {
	if strings.Contains(selected, Tag(letter)) {
		return Correct
	}
	return Incorrect
}

// GradeStrict reports Correct only when selected begins with the tag of
// letter, ignoring leading whitespace.
func GradeStrict(selected, letter string) Outcome {
	if strings.HasPrefix(strings.TrimSpace(selected), Tag(letter)) {
		return Correct
	}
	return Incorrect
}
