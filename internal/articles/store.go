// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package articles reads and writes generated articles on disk, one JSON
// file per article under a subject directory.
package articles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/science-digest/internal/queue"
	"github.com/pdiddy/science-digest/pkg/types"
)

// ErrNotFound is returned by Find when no article has the requested id.
var ErrNotFound = errors.New("article not found")

// AllSubjects selects every subject in Filter.
const AllSubjects = "all"

// TimeLayout is the processed_at layout.
const TimeLayout = "2006-01-02 15:04:05"

const (
	idTitleRunes   = 10
	fileTitleRunes = 80
	dateStamp      = "20060102"
)

// New builds an article for paper generated at now.
func New(paper types.Paper, content string, now time.Time) types.Article {
	safe := queue.SafeName(paper.Title)
	return types.Article{
		ID:          now.Format(dateStamp) + "_" + queue.Truncate(safe, idTitleRunes),
		Meta:        paper,
		Content:     content,
		ProcessedAt: now.Format(TimeLayout),
	}
}

// Store is a directory of article files.
type Store struct {
	Dir string

	// Warn receives one line per file Load had to skip. Nil discards.
	Warn io.Writer
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// FileName returns <subject>/<YYYYMMDD>_<safe title>.json relative to the store.
// The title part is cut to 80 runes and the whole name to queue.MaxNameBytes.
func FileName(a types.Article) string {
	subject := a.Meta.Subject
	if subject == "" {
		subject = types.SubjectUncategorized
	}
	stamp := time.Now().Format(dateStamp)
	if t, err := time.ParseInLocation(TimeLayout, a.ProcessedAt, time.Local); err == nil {
		stamp = t.Format(dateStamp)
	}
	name := queue.TruncateBytes(stamp+"_"+queue.Truncate(queue.SafeName(a.Meta.Title), fileTitleRunes), queue.MaxNameBytes)
	return filepath.Join(subject, name+".json")
}

// Write stores a and returns the path written. An article with the same
// date and title replaces the earlier file.
func (s *Store) Write(a types.Article) (string, error) {
	path := filepath.Join(s.Dir, FileName(a))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating article directory: %w", err)
	}
	data, err := queue.MarshalIndent(a)
	if err != nil {
		return "", fmt.Errorf("encoding article %s: %w", a.ID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Load reads every article under the store, newest id first. Files that
// cannot be read or decoded are skipped. A missing directory yields none.
func (s *Store) Load() ([]types.Article, error) {
	var list []types.Article
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.Dir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		a, readErr := readArticle(path)
		if readErr != nil {
			s.warn("skipping %s: %v", path, readErr)
			return nil
		}
		list = append(list, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning articles %s: %w", s.Dir, err)
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func readArticle(path string) (types.Article, error) {
	var a types.Article
	data, err := os.ReadFile(path)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, err
	}
	a.SubjectCategory = filepath.Base(filepath.Dir(path))
	a.Path = path
	return a, nil
}

func (s *Store) warn(format string, args ...any) {
	if s.Warn != nil {
		fmt.Fprintf(s.Warn, "warning: "+format+"\n", args...)
	}
}

// Filter keeps the articles whose directory matches subject. An empty
// subject or "all" keeps everything.
func Filter(list []types.Article, subject string) []types.Article {
	if subject == "" || subject == AllSubjects {
		return list
	}
	var out []types.Article
	for _, a := range list {
		if a.SubjectCategory == subject {
			out = append(out, a)
		}
	}
	return out
}

// Find returns the first article with id.
func Find(list []types.Article, id string) (types.Article, error) {
	for _, a := range list {
		if a.ID == id {
			return a, nil
		}
	}
	return types.Article{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Subjects returns the distinct subject directories present in list, sorted.
func Subjects(list []types.Article) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range list {
		if !seen[a.SubjectCategory] {
			seen[a.SubjectCategory] = true
			out = append(out, a.SubjectCategory)
		}
	}
	sort.Strings(out)
	return out
}
