package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/noteify"
)

// Ensure LoggingIndex implements noteify.SectionIndex.
var _ noteify.SectionIndex = (*LoggingIndex)(nil)

// LoggingIndex wraps a SectionIndex with logging of mutations and lookups.
type LoggingIndex struct {
	next   noteify.SectionIndex
	logger *slog.Logger
}

// NewLoggingIndex creates a new LoggingIndex.
func NewLoggingIndex(next noteify.SectionIndex, logger *slog.Logger) *LoggingIndex {
	return &LoggingIndex{next: next, logger: logger}
}

// SetByPathAndContent delegates to the wrapped index and logs the operation
// with the content hash and section count of the new entry.
func (s *LoggingIndex) SetByPathAndContent(ctx context.Context, path string, content []byte) (err error) {
	begin := time.Now()
	err = s.next.SetByPathAndContent(ctx, path, content)
	attrs := []any{"path", path, "bytes", len(content), "duration", time.Since(begin), "err", err}
	if err == nil {
		if e, eerr := s.next.Entry(ctx, path); eerr == nil {
			attrs = append(attrs, "hash", e.Hash, "sections", e.Sections)
		}
	}
	s.logger.Info("index update", attrs...)
	return err
}

// DeleteByPath delegates to the wrapped index and logs the operation.
func (s *LoggingIndex) DeleteByPath(ctx context.Context, path string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("index delete",
			"path", path,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteByPath(ctx, path)
}

// Resolve delegates to the wrapped index and logs the lookup at debug level.
func (s *LoggingIndex) Resolve(ctx context.Context, id noteify.SectionID) (loc *noteify.Location, err error) {
	defer func(begin time.Time) {
		attrs := []any{"id", id, "duration", time.Since(begin), "err", err}
		if loc != nil {
			attrs = append(attrs, "path", loc.Path, "line", loc.Line)
		}
		s.logger.Debug("section resolve", attrs...)
	}(time.Now())
	return s.next.Resolve(ctx, id)
}

// Entry delegates to the wrapped index.
func (s *LoggingIndex) Entry(ctx context.Context, path string) (*noteify.Entry, error) {
	return s.next.Entry(ctx, path)
}

// Documents delegates to the wrapped index.
func (s *LoggingIndex) Documents(ctx context.Context) []*noteify.Entry {
	return s.next.Documents(ctx)
}

// Snapshot delegates to the wrapped index.
func (s *LoggingIndex) Snapshot(fn func(docs []*noteify.Root)) {
	s.next.Snapshot(fn)
}
