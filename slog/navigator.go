package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/noteify"
)

// Ensure LoggingNavigator implements noteify.Navigator.
var _ noteify.Navigator = (*LoggingNavigator)(nil)

// LoggingNavigator wraps a Navigator with logging.
type LoggingNavigator struct {
	next   noteify.Navigator
	logger *slog.Logger
}

// NewLoggingNavigator creates a new LoggingNavigator.
func NewLoggingNavigator(next noteify.Navigator, logger *slog.Logger) *LoggingNavigator {
	return &LoggingNavigator{next: next, logger: logger}
}

// GoTo delegates to the wrapped navigator and logs the operation.
func (n *LoggingNavigator) GoTo(ctx context.Context, path string, line, column int) (err error) {
	defer func(begin time.Time) {
		n.logger.Info("reveal",
			"path", path,
			"line", line,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return n.next.GoTo(ctx, path, line, column)
}
