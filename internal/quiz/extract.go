// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quiz recovers the embedded quiz from generated article text,
// validates it, and grades answers against it.
//
// Generated text is weakly structured: the model is asked to end the article
// with Marker followed by a JSON object, but it sometimes drops the marker,
// uses a trailing "---" separator instead, or wraps the JSON in a code fence.
// Extract and Validate recover what they can and never panic on bad input.
package quiz

import "strings"

// Marker separates the article prose from the quiz payload.
const Marker = "===QUIZ_JSON==="

// separator is the looser trailing delimiter tried when Marker is absent.
const separator = "\n---"

// fence opens or closes a Markdown code block.
const fence = "```"

// Extraction is the result of splitting generated text. Found is false
// when no quiz block was recognized; Article then holds the whole input.
type Extraction struct {
	Article string
	Quiz    string
	Found   bool
}

// Extract splits raw into article prose and a candidate quiz payload.
// Strategies are tried in order and the first match wins:
//
//  1. Marker present: split at its first occurrence. Text after a second
//     marker, if any, is dropped.
//  2. Otherwise split at the last "\n---" when the trailing segment looks
//     like a JSON object: it contains both braces and starts with '{' or a
//     code fence once trimmed.
//  3. Otherwise the whole input is the article.
//
// The quiz text is returned untrimmed; Validate cleans it.
func Extract(raw string) Extraction {
	if e, ok := splitOnMarker(raw); ok {
		return e
	}
	if e, ok := splitOnSeparator(raw); ok {
		return e
	}
	return Extraction{Article: raw}
}

func splitOnMarker(raw string) (Extraction, bool) {
	article, rest, ok := strings.Cut(raw, Marker)
	if !ok {
		return Extraction{}, false
	}
	quiz, _, _ := strings.Cut(rest, Marker)
	return Extraction{Article: article, Quiz: quiz, Found: true}, true
}

func splitOnSeparator(raw string) (Extraction, bool) {
	idx := strings.LastIndex(raw, separator)
	if idx < 0 {
		return Extraction{}, false
	}
	tail := raw[idx+len(separator):]
	if !looksLikePayload(tail) {
		return Extraction{}, false
	}
	return Extraction{Article: raw[:idx], Quiz: tail, Found: true}, true
}

// looksLikePayload guards the separator fallback against closing remarks
// that merely follow a horizontal rule.
func looksLikePayload(s string) bool {
	t := strings.TrimSpace(s)
	if !strings.Contains(t, "{") || !strings.Contains(t, "}") {
		return false
	}
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, fence)
}
