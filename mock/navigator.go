package mock

import (
	"context"

	"github.com/fwojciec/noteify"
)

var _ noteify.Navigator = (*Navigator)(nil)

// Navigator is a mock implementation of noteify.Navigator.
type Navigator struct {
	GoToFn func(ctx context.Context, path string, line, column int) error
}

func (n *Navigator) GoTo(ctx context.Context, path string, line, column int) error {
	return n.GoToFn(ctx, path, line, column)
}
