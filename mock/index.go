package mock

import (
	"context"

	"github.com/fwojciec/noteify"
)

var _ noteify.SectionIndex = (*SectionIndex)(nil)

// SectionIndex is a mock implementation of noteify.SectionIndex.
type SectionIndex struct {
	SetByPathAndContentFn func(ctx context.Context, path string, content []byte) error
	DeleteByPathFn        func(ctx context.Context, path string) error
	ResolveFn             func(ctx context.Context, id noteify.SectionID) (*noteify.Location, error)
	EntryFn               func(ctx context.Context, path string) (*noteify.Entry, error)
	DocumentsFn           func(ctx context.Context) []*noteify.Entry
	SnapshotFn            func(fn func(docs []*noteify.Root))
}

func (s *SectionIndex) SetByPathAndContent(ctx context.Context, path string, content []byte) error {
	return s.SetByPathAndContentFn(ctx, path, content)
}

func (s *SectionIndex) DeleteByPath(ctx context.Context, path string) error {
	return s.DeleteByPathFn(ctx, path)
}

func (s *SectionIndex) Resolve(ctx context.Context, id noteify.SectionID) (*noteify.Location, error) {
	return s.ResolveFn(ctx, id)
}

func (s *SectionIndex) Entry(ctx context.Context, path string) (*noteify.Entry, error) {
	return s.EntryFn(ctx, path)
}

func (s *SectionIndex) Documents(ctx context.Context) []*noteify.Entry {
	return s.DocumentsFn(ctx)
}

func (s *SectionIndex) Snapshot(fn func(docs []*noteify.Root)) {
	s.SnapshotFn(fn)
}

var _ noteify.IndexListener = (*IndexListener)(nil)

// IndexListener is a mock implementation of noteify.IndexListener.
type IndexListener struct {
	DocumentReplacedFn func(doc *noteify.Root)
	DocumentRemovedFn  func(path string)
}

func (l *IndexListener) DocumentReplaced(doc *noteify.Root) {
	l.DocumentReplacedFn(doc)
}

func (l *IndexListener) DocumentRemoved(path string) {
	l.DocumentRemovedFn(path)
}

var _ noteify.ChangeHandler = (*ChangeHandler)(nil)

// ChangeHandler is a mock implementation of noteify.ChangeHandler.
type ChangeHandler struct {
	OnCreatedOrModifiedFn func(ctx context.Context, path string, content []byte)
	OnDeletedFn           func(ctx context.Context, path string)
	OnRenamedFn           func(ctx context.Context, path, oldPath string, content []byte)
}

func (h *ChangeHandler) OnCreatedOrModified(ctx context.Context, path string, content []byte) {
	h.OnCreatedOrModifiedFn(ctx, path, content)
}

func (h *ChangeHandler) OnDeleted(ctx context.Context, path string) {
	h.OnDeletedFn(ctx, path)
}

func (h *ChangeHandler) OnRenamed(ctx context.Context, path, oldPath string, content []byte) {
	h.OnRenamedFn(ctx, path, oldPath, content)
}
