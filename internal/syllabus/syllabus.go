// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package syllabus maps curriculum subjects and chapters to the search
// keywords used when fetching papers.
package syllabus

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Backend source names a subject can be fetched from.
const (
	SourceArxiv  = "arxiv"
	SourcePubMed = "pubmed"
)

// Syllabus is the full subject map.
type Syllabus struct {
	Subjects map[string]Subject `yaml:"subjects"`
}

// Subject lists the chapters of one subject and the backend to search.
type Subject struct {
	Label    string              `yaml:"label"`
	Source   string              `yaml:"source"`
	Chapters map[string][]string `yaml:"chapters"`
}

// Topic is one randomly chosen search target.
type Topic struct {
	Subject string
	Chapter string
	Keyword string
	Source  string
}

// Default returns the built-in syllabus.
func Default() (*Syllabus, error) {
	return parse(defaultYAML)
}

// Load reads a syllabus from path. An empty path returns Default.
func Load(path string) (*Syllabus, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading syllabus %s: %w", path, err)
	}
	s, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("syllabus %s: %w", path, err)
	}
	return s, nil
}

func parse(data []byte) (*Syllabus, error) {
	var s Syllabus
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every subject can yield a topic.
func (s *Syllabus) Validate() error {
	if len(s.Subjects) == 0 {
		return fmt.Errorf("no subjects defined")
	}
	for name, sub := range s.Subjects {
		if sub.Source == "" {
			return fmt.Errorf("subject %q: source is required", name)
		}
		if len(sub.Chapters) == 0 {
			return fmt.Errorf("subject %q: at least one chapter is required", name)
		}
		for ch, kws := range sub.Chapters {
			if len(kws) == 0 {
				return fmt.Errorf("subject %q chapter %q: at least one keyword is required", name, ch)
			}
		}
	}
	return nil
}

// SubjectNames returns the subject names in sorted order.
func (s *Syllabus) SubjectNames() []string {
	return sortedKeys(s.Subjects)
}

// Pick chooses a subject, then a chapter, then a keyword, each uniformly.
// Keys are visited in sorted order so a seeded rng gives repeatable picks.
func (s *Syllabus) Pick(rng *rand.Rand) Topic {
	subjects := sortedKeys(s.Subjects)
	name := subjects[rng.IntN(len(subjects))]
	sub := s.Subjects[name]

	chapters := sortedKeys(sub.Chapters)
	chapter := chapters[rng.IntN(len(chapters))]
	keywords := sub.Chapters[chapter]

	return Topic{
		Subject: name,
		Chapter: chapter,
		Keyword: keywords[rng.IntN(len(keywords))],
		Source:  sub.Source,
	}
}

// Marshal encodes the syllabus as YAML.
func (s *Syllabus) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
