// Package slog decorates noteify services with structured logging.
package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/noteify"
)

// Ensure LoggingParser implements noteify.Parser.
var _ noteify.Parser = (*LoggingParser)(nil)

// LoggingParser wraps a Parser with debug logging.
type LoggingParser struct {
	next   noteify.Parser
	logger *slog.Logger
}

// NewLoggingParser creates a new LoggingParser.
func NewLoggingParser(next noteify.Parser, logger *slog.Logger) *LoggingParser {
	return &LoggingParser{next: next, logger: logger}
}

// Parse delegates to the wrapped parser and logs the operation.
func (p *LoggingParser) Parse(content []byte) (root *noteify.Node, err error) {
	defer func(begin time.Time) {
		nodes := 0
		if root != nil {
			nodes = len(root.Children)
		}
		p.logger.Debug("parse",
			"bytes", len(content),
			"nodes", nodes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Parse(content)
}
