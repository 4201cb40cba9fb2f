package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/noteify/mock"
	nslog "github.com/fwojciec/noteify/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingNavigator_GoTo(t *testing.T) {
	t.Parallel()

	t.Run("logs reveal with location and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		var gotLine int
		inner := &mock.Navigator{
			GoToFn: func(ctx context.Context, path string, line, column int) error {
				gotLine = line
				return nil
			},
		}

		nav := nslog.NewLoggingNavigator(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		err := nav.GoTo(context.Background(), "a.md", 4, 0)

		require.NoError(t, err)
		assert.Equal(t, 4, gotLine)
		output := buf.String()
		assert.Contains(t, output, "reveal")
		assert.Contains(t, output, "path=a.md")
		assert.Contains(t, output, "line=4")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Navigator{
			GoToFn: func(ctx context.Context, path string, line, column int) error {
				return errors.New("editor not found")
			},
		}

		nav := nslog.NewLoggingNavigator(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		err := nav.GoTo(context.Background(), "a.md", 1, 0)

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=\"editor not found\"")
	})
}
