package index

import (
	"context"
	"log/slog"

	"github.com/fwojciec/noteify"
)

// Ensure ChangeHandler implements noteify.ChangeHandler at compile time.
var _ noteify.ChangeHandler = (*ChangeHandler)(nil)

// ChangeHandler applies file change notifications to a SectionIndex.
// Failed updates leave the index unchanged and are only logged.
type ChangeHandler struct {
	index  noteify.SectionIndex
	logger *slog.Logger
}

// NewChangeHandler creates a new ChangeHandler.
func NewChangeHandler(index noteify.SectionIndex, logger *slog.Logger) *ChangeHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ChangeHandler{index: index, logger: logger}
}

// OnCreatedOrModified re-indexes path with content.
func (h *ChangeHandler) OnCreatedOrModified(ctx context.Context, path string, content []byte) {
	if err := h.index.SetByPathAndContent(ctx, path, content); err != nil {
		h.logger.Warn("index not updated", "path", path, "err", err)
	}
}

// OnDeleted removes path from the index.
func (h *ChangeHandler) OnDeleted(ctx context.Context, path string) {
	if err := h.index.DeleteByPath(ctx, path); err != nil {
		h.logger.Warn("index not updated", "path", path, "err", err)
	}
}

// OnRenamed deletes oldPath, then indexes path. Consumers may observe the
// state in between, where neither path is present.
func (h *ChangeHandler) OnRenamed(ctx context.Context, path, oldPath string, content []byte) {
	h.OnDeleted(ctx, oldPath)
	h.OnCreatedOrModified(ctx, path, content)
}
