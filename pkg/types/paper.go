// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Subject identifiers used as queue and article subdirectory names.
const (
	SubjectPhysics       = "physics"
	SubjectChemistry     = "chemistry"
	SubjectBiology       = "biology"
	SubjectUncategorized = "uncategorized"
)

// Source names recorded on fetched papers.
const (
	SourceArxiv  = "arXiv"
	SourcePubMed = "PubMed"
)

// subjectLabels maps a subject to the label used in prompts and the UI.
var subjectLabels = map[string]string{
	SubjectPhysics:   "物理",
	SubjectChemistry: "化學",
	SubjectBiology:   "生物",
}

// subjectEmoji maps a subject to the icon shown next to article titles.
var subjectEmoji = map[string]string{
	SubjectPhysics:   "⚛️",
	SubjectChemistry: "⚗️",
	SubjectBiology:   "🧬",
}

// SubjectLabel returns the display label for subject, or the generic
// science label when the subject is unknown.
func SubjectLabel(subject string) string {
	if l, ok := subjectLabels[subject]; ok {
		return l
	}
	return "自然科"
}

// SubjectEmoji returns the icon for subject, or a plain document icon.
func SubjectEmoji(subject string) string {
	if e, ok := subjectEmoji[subject]; ok {
		return e
	}
	return "📄"
}

// Paper is one fetched abstract waiting in the queue. It is also stored
// verbatim as the Meta of the Article generated from it.
type Paper struct {
	// Title is the paper title as published.
	Title string `json:"title" yaml:"title"`

	// Summary is the abstract, flattened to a single paragraph.
	Summary string `json:"summary" yaml:"summary"`

	// Published is the publication date (YYYY-MM-DD for arXiv, YYYY for PubMed).
	Published string `json:"published" yaml:"published"`

	// URL is the canonical landing page of the paper.
	URL string `json:"url" yaml:"url"`

	// Source names the backend that returned the paper (arXiv or PubMed).
	Source string `json:"source" yaml:"source"`

	// MappingChapter is the syllabus chapter the search keyword came from.
	MappingChapter string `json:"mapping_chapter" yaml:"mapping_chapter"`

	// MappingKeyword is the syllabus keyword used for the search.
	MappingKeyword string `json:"mapping_keyword" yaml:"mapping_keyword"`

	// Subject is the syllabus subject (physics, chemistry, biology).
	Subject string `json:"subject" yaml:"subject"`
}
