// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quiz

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Payload is a single multiple-choice question. Options keep display order
// and are expected to start with a tag such as "(A) ".
type Payload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// requiredKeys must all be present in the decoded object.
var requiredKeys = []string{"question", "options", "correct_answer", "explanation"}

// fenceToken matches an opening fence with an optional language tag, or a
// bare closing fence.
var fenceToken = regexp.MustCompile("```[A-Za-z0-9_+.-]*")

// MalformedQuizError reports a quiz payload that could not be parsed.
// Text is the cleaned payload, kept so the UI can show it for diagnosis.
type MalformedQuizError struct {
	Text   string
	Reason string
	Err    error
}

func (e *MalformedQuizError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed quiz: %s: %v", e.Reason, e.Err)
	}
	return "malformed quiz: " + e.Reason
}

func (e *MalformedQuizError) Unwrap() error { return e.Err }

// Clean trims text and, when it starts with a code fence, removes every
// fence token from it. The removal is textual, not a structural unwrap.
func Clean(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, fence) {
		return t
	}
	return strings.TrimSpace(fenceToken.ReplaceAllString(t, ""))
}

// Validate cleans text and decodes it as a quiz object. It fails with a
// *MalformedQuizError when the text is not a JSON object, a field has the
// wrong type, or a required key is missing. No semantic checks are made:
// option count and answer-tag consistency are left to grading.
func Validate(text string) (Payload, error) {
	cleaned := Clean(text)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return Payload{}, &MalformedQuizError{Text: cleaned, Reason: "invalid JSON", Err: err}
	}
	if fields == nil {
		return Payload{}, &MalformedQuizError{Text: cleaned, Reason: "payload is not an object"}
	}
	for _, k := range requiredKeys {
		if _, ok := fields[k]; !ok {
			return Payload{}, &MalformedQuizError{Text: cleaned, Reason: fmt.Sprintf("missing key %q", k)}
		}
	}

	var p Payload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return Payload{}, &MalformedQuizError{Text: cleaned, Reason: "unexpected field type", Err: err}
	}
	return p, nil
}

// Parse runs Extract and, when a quiz block is found, Validate. The
// returned payload is nil when the text carries no quiz.
func Parse(raw string) (Extraction, *Payload, error) {
	ext := Extract(raw)
	if !ext.Found {
		return ext, nil, nil
	}
	p, err := Validate(ext.Quiz)
	if err != nil {
		return ext, nil, err
	}
	return ext, &p, nil
}
