// Package source implements the source store of spec §4.A: it owns every
// input buffer that takes part in one compilation, keyed by absolute path,
// and hands out stable path ids that the rest of the pipeline (lexer,
// parser, AST spans) can reference cheaply instead of carrying strings
// around.
//
// Grounded on esbuild's logger.Source / bundler source-index allocation
// idiom: sources are appended to a growable slice and referenced by their
// index into it, never by pointer, so spans stay small and comparable.
package source

import (
	"strings"
	"sync"

	"github.com/riftss/riftss/internal/logger"
)

// Store owns every logger.Source that takes part in a single compilation.
// It is not safe for concurrent mutation (spec §5: one compilation is
// single-threaded), but path lookups may safely happen while the resolver
// is not actively adding sources.
type Store struct {
	mu      sync.Mutex
	byPath  map[string]uint32
	sources []*logger.Source
}

func New() *Store {
	return &Store{byPath: make(map[string]uint32)}
}

// Canonical normalizes backslashes to forward slashes per spec §4.A so
// that path comparisons and the "included files" list never depend on the
// host OS.
func Canonical(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// Add registers bytes under an absolute path, returning its path id. Calls
// with the same canonical path are idempotent and return the same id,
// which is what spec §4.E's import dedup relies on.
func (s *Store) Add(path string, contents string) (id uint32, alreadyLoaded bool) {
	path = Canonical(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byPath[path]; ok {
		return id, true
	}
	id = uint32(len(s.sources))
	src := &logger.Source{
		Index:      id,
		KeyPath:    logger.Path{Text: path, Namespace: "file"},
		PrettyPath: path,
		Contents:   contents,
	}
	s.sources = append(s.sources, src)
	s.byPath[path] = id
	return id, false
}

// AddURL registers a URL-passthrough "import" (spec §4.E rule 1) so it
// still receives a stable id for diagnostics, without reading any bytes.
func (s *Store) AddURL(url string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := "url:" + url
	if id, ok := s.byPath[key]; ok {
		return id
	}
	id := uint32(len(s.sources))
	src := &logger.Source{
		Index:      id,
		KeyPath:    logger.Path{Text: url, Namespace: "url"},
		PrettyPath: url,
	}
	s.sources = append(s.sources, src)
	s.byPath[key] = id
	return id
}

func (s *Store) Source(id uint32) *logger.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources[id]
}

func (s *Store) Text(id uint32) string {
	return s.Source(id).Contents
}

// PositionOf implements spec §4.A's `(path, offset) → (line, column)` lookup.
func (s *Store) PositionOf(id uint32, offset int32) (line, column int) {
	return s.Source(id).PositionOf(offset)
}

// IDByPath looks up an already-registered path without adding it, used by
// the import resolver's circular-import and dedup checks.
func (s *Store) IDByPath(path string) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPath[Canonical(path)]
	return id, ok
}

// Tracker returns a LineColumnTracker bound to the given source, for
// stages (lexer, parser) that want to attach positions to diagnostics.
func (s *Store) Tracker(id uint32) logger.LineColumnTracker {
	return logger.MakeLineColumnTracker(s.Source(id))
}
