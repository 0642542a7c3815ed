// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value. Environment variables fill keys with no file.
//
// Supported key files: gemini-api-key, ncbi-api-key, ncbi-email, session-secret.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/science-digest/internal/logger"
)

// Key names understood by the pipeline.
const (
	GeminiAPIKey  = "gemini-api-key"
	NCBIAPIKey    = "ncbi-api-key"
	NCBIEmail     = "ncbi-email"
	SessionSecret = "session-secret"
)

// envFallback names the environment variable consulted for each key.
var envFallback = map[string]string{
	GeminiAPIKey:  "GEMINI_API_KEY",
	NCBIAPIKey:    "NCBI_API_KEY",
	NCBIEmail:     "NCBI_EMAIL",
	SessionSecret: "SESSION_SECRET",
}

// Set is a loaded collection of secrets.
type Set map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty set.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, log *logger.Logger) (Set, error) {
	if log == nil {
		log = logger.Discard()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Lookup returns the value for key, falling back to its environment variable.
func (s Set) Lookup(key string) string {
	if v, ok := s[key]; ok {
		return v
	}
	if env, ok := envFallback[key]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// Names returns the loaded key names in sorted order. Values are never listed.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
