// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package queue stores fetched papers on disk until the generation stage
// consumes them. Each pending paper is one JSON file under a subject directory.
package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/science-digest/pkg/types"
)

// maxNameRunes bounds queue file names.
const maxNameRunes = 100

// MaxNameBytes caps a file name stem so that, with its extension, it stays
// under the 255-byte name limit of common filesystems.
const MaxNameBytes = 240

// Queue is a directory of pending papers.
type Queue struct {
	Dir string
}

// New returns a queue rooted at dir.
func New(dir string) *Queue {
	return &Queue{Dir: dir}
}

// Enqueue writes paper to <Dir>/<subject>/<safe title>.json and returns the
// path. A paper with the same safe title replaces the earlier file.
func (q *Queue) Enqueue(paper types.Paper) (string, error) {
	subject := paper.Subject
	if subject == "" {
		subject = types.SubjectUncategorized
	}
	dir := filepath.Join(q.Dir, subject)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating queue directory %s: %w", dir, err)
	}

	name := TruncateBytes(Truncate(SafeName(paper.Title), maxNameRunes), MaxNameBytes)
	if name == "" {
		name = "untitled"
	}
	path := filepath.Join(dir, name+".json")

	data, err := MarshalIndent(paper)
	if err != nil {
		return "", fmt.Errorf("encoding paper %q: %w", paper.Title, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Pending lists every queued file in lexical path order. A missing queue
// directory yields no files.
func (q *Queue) Pending() ([]string, error) {
	var files []string
	err := filepath.WalkDir(q.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == q.Dir {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning queue %s: %w", q.Dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Read decodes one queued paper.
func (q *Queue) Read(path string) (types.Paper, error) {
	var p types.Paper
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

// Remove deletes a processed queue file.
func (q *Queue) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

var unsafeChars = strings.NewReplacer(
	`\`, "_", "/", "_", "*", "_", "?", "_", ":", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// SafeName makes a title usable as a file name on common filesystems.
func SafeName(title string) string {
	return strings.TrimSpace(unsafeChars.Replace(title))
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// TruncateBytes shortens s to at most n bytes without splitting a rune.
func TruncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	end := 0
	for i := range s {
		if i > n {
			break
		}
		end = i
	}
	return s[:end]
}

// MarshalIndent encodes v as indented JSON without HTML escaping so that
// titles and CJK text stay readable in the files.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
