// Package index provides the in-memory section index: the latest tree of
// every document and the global map from section identifier to location.
package index

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fwojciec/noteify"
)

// Ensure Index implements noteify.SectionIndex at compile time.
var _ noteify.SectionIndex = (*Index)(nil)

// Index implements noteify.SectionIndex. All mutations and the listener
// notifications they produce happen under one mutex, so listeners observe
// mutations in commit order and never interleaved.
type Index struct {
	// Listener, if set, is notified of every committed mutation.
	// Set before first use.
	Listener noteify.IndexListener

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	parser noteify.Parser
	alloc  noteify.IDAllocator

	mu        sync.Mutex
	entries   map[string]*entry
	locations map[noteify.SectionID]noteify.Location
}

// entry is the index state of one path. ids holds exactly the identifiers
// introduced by root, so they can be retracted without walking the tree.
type entry struct {
	root      *noteify.Root
	ids       mapset.Set[noteify.SectionID]
	hash      string
	indexedAt time.Time
}

// New creates an empty Index that parses content with parser.
func New(parser noteify.Parser) *Index {
	return &Index{
		Now:       time.Now,
		parser:    parser,
		entries:   make(map[string]*entry),
		locations: make(map[noteify.SectionID]noteify.Location),
	}
}

// SetByPathAndContent parses content and atomically replaces the entry for path.
// Parsing happens outside the lock; callers serialize updates of the same path.
func (i *Index) SetByPathAndContent(ctx context.Context, path string, content []byte) error {
	if path == "" {
		return noteify.Errorf(noteify.EINVALID, "document path required")
	}

	md, err := i.parser.Parse(content)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	doc, err := noteify.BuildDocument(path, md, &i.alloc)
	if err != nil {
		return err
	}

	e := &entry{
		root:      doc,
		ids:       mapset.NewThreadUnsafeSet[noteify.SectionID](),
		hash:      hashContent(content),
		indexedAt: i.Now().UTC(),
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.retract(path)
	doc.Walk(func(s *noteify.Section) {
		e.ids.Add(s.ID)
		i.locations[s.ID] = noteify.Location{Path: path, Line: s.Line}
	})
	i.entries[path] = e

	if i.Listener != nil {
		i.Listener.DocumentReplaced(doc)
	}
	return nil
}

// DeleteByPath removes the entry for path and retracts its identifiers.
func (i *Index) DeleteByPath(ctx context.Context, path string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.retract(path) {
		return nil
	}
	delete(i.entries, path)

	if i.Listener != nil {
		i.Listener.DocumentRemoved(path)
	}
	return nil
}

// retract removes the identifiers of path's current entry from the global
// map. Reports whether an entry existed. Must be called with mu held.
func (i *Index) retract(path string) bool {
	old, ok := i.entries[path]
	if !ok {
		return false
	}
	for _, id := range old.ids.ToSlice() {
		delete(i.locations, id)
	}
	return true
}

// Resolve returns the location recorded when the section was created.
func (i *Index) Resolve(ctx context.Context, id noteify.SectionID) (*noteify.Location, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	loc, ok := i.locations[id]
	if !ok {
		return nil, noteify.Errorf(noteify.ENOTFOUND, "section %d not found", id)
	}
	return &loc, nil
}

// Documents returns the current entries ordered by path.
func (i *Index) Documents(ctx context.Context) []*noteify.Entry {
	i.mu.Lock()
	defer i.mu.Unlock()

	docs := make([]*noteify.Entry, 0, len(i.entries))
	for _, path := range i.paths() {
		docs = append(docs, i.entries[path].export(path))
	}
	return docs
}

// Entry returns the current entry for path.
func (i *Index) Entry(ctx context.Context, path string) (*noteify.Entry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	e, ok := i.entries[path]
	if !ok {
		return nil, noteify.Errorf(noteify.ENOTFOUND, "document %s not found", path)
	}
	return e.export(path), nil
}

func (e *entry) export(path string) *noteify.Entry {
	return &noteify.Entry{
		Path:      path,
		Root:      e.root,
		Hash:      e.hash,
		Sections:  e.ids.Cardinality(),
		IndexedAt: e.indexedAt,
	}
}

// Snapshot calls fn with the current documents ordered by path while
// holding the lock.
func (i *Index) Snapshot(fn func(docs []*noteify.Root)) {
	i.mu.Lock()
	defer i.mu.Unlock()

	docs := make([]*noteify.Root, 0, len(i.entries))
	for _, path := range i.paths() {
		docs = append(docs, i.entries[path].root)
	}
	fn(docs)
}

// Verify checks that the global map holds exactly the identifiers of the
// current entries, each pointing back to its owning path.
func (i *Index) Verify() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	union := mapset.NewThreadUnsafeSet[noteify.SectionID]()
	for path, e := range i.entries {
		for _, id := range e.ids.ToSlice() {
			loc, ok := i.locations[id]
			if !ok {
				return noteify.Errorf(noteify.EINTERNAL, "section %d of %s has no location", id, path)
			}
			if loc.Path != path {
				return noteify.Errorf(noteify.EINTERNAL, "section %d of %s located in %s", id, path, loc.Path)
			}
		}
		union = union.Union(e.ids)
	}
	if union.Cardinality() != len(i.locations) {
		return noteify.Errorf(noteify.EINTERNAL, "%d located sections, %d owned", len(i.locations), union.Cardinality())
	}
	return nil
}

func (i *Index) paths() []string {
	paths := make([]string, 0, len(i.entries))
	for path := range i.entries {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// hashContent computes xxHash of content and returns it as hex.
func hashContent(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}
