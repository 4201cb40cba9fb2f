package noteify

import (
	"context"
	"time"
)

// Entry describes the current state of one indexed document.
type Entry struct {
	Path      string    `json:"path"`
	Root      *Root     `json:"doc"`
	Hash      string    `json:"hash"`
	Sections  int       `json:"sections"`
	IndexedAt time.Time `json:"indexedAt"`
}

// SectionIndex owns the latest tree of every indexed document and the global
// map from structural identifier to source location.
//
// Every mutation is atomic with respect to every other: after any sequence of
// calls, the set of resolvable identifiers is exactly the union of the
// identifiers of the current documents.
type SectionIndex interface {
	// SetByPathAndContent parses content and replaces the entry for path.
	// Returns EINVALID if the content does not parse; the previous entry is
	// left untouched in that case.
	SetByPathAndContent(ctx context.Context, path string, content []byte) error

	// DeleteByPath removes the entry for path. No-op if path is not indexed.
	DeleteByPath(ctx context.Context, path string) error

	// Resolve returns the source location of a section.
	// Returns ENOTFOUND if the identifier is unknown or stale.
	Resolve(ctx context.Context, id SectionID) (*Location, error)

	// Entry returns the current entry for path.
	// Returns ENOTFOUND if path is not indexed.
	Entry(ctx context.Context, path string) (*Entry, error)

	// Documents returns the current entries ordered by path.
	Documents(ctx context.Context) []*Entry

	// Snapshot calls fn with the current documents. No mutation is applied
	// while fn runs.
	Snapshot(fn func(docs []*Root))
}

// IndexListener is notified of every committed index mutation, in commit order.
// Implementations must not block and must not call back into the index.
type IndexListener interface {
	DocumentReplaced(doc *Root)
	DocumentRemoved(path string)
}

// ChangeHandler receives change notifications from the file-watching host.
type ChangeHandler interface {
	OnCreatedOrModified(ctx context.Context, path string, content []byte)
	OnDeleted(ctx context.Context, path string)

	// OnRenamed is applied as OnDeleted(oldPath) followed by
	// OnCreatedOrModified(path, content). It is not atomic.
	OnRenamed(ctx context.Context, path, oldPath string, content []byte)
}
