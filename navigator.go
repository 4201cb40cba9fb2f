package noteify

import "context"

// Navigator moves the host's source view to a position.
type Navigator interface {
	// GoTo navigates to a 1-based line of path. Column is 0-based.
	// Implementations must not block on the host's response.
	GoTo(ctx context.Context, path string, line, column int) error
}
