// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Article is one unit of generated educational content. It is written once
// by the processing stage and read-only afterwards.
type Article struct {
	// ID is date-prefixed (YYYYMMDD_...) so lexical order is chronological.
	ID string `json:"id"`

	// Meta is the queued paper the article was generated from.
	Meta Paper `json:"meta"`

	// Content is the raw generated text: article prose, quiz marker, quiz JSON.
	Content string `json:"content"`

	// ProcessedAt is the local generation time (2006-01-02 15:04:05).
	ProcessedAt string `json:"processed_at"`

	// SubjectCategory is the name of the directory the article was loaded
	// from. Not persisted.
	SubjectCategory string `json:"-"`

	// Path is the file the article was loaded from. Not persisted.
	Path string `json:"-"`
}
