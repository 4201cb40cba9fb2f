package slog_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/noteify"
	"github.com/fwojciec/noteify/mock"
	nslog "github.com/fwojciec/noteify/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("logs parse with size and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		want := &noteify.Node{Kind: noteify.NodeRoot, Children: []*noteify.Node{{Kind: noteify.NodeParagraph}}}
		inner := &mock.Parser{
			ParseFn: func(content []byte) (*noteify.Node, error) {
				return want, nil
			},
		}

		parser := nslog.NewLoggingParser(inner, debugLogger(&buf))
		got, err := parser.Parse([]byte("hello"))

		require.NoError(t, err)
		assert.Same(t, want, got)
		output := buf.String()
		assert.Contains(t, output, "msg=parse")
		assert.Contains(t, output, "bytes=5")
		assert.Contains(t, output, "nodes=1")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Parser{
			ParseFn: func(content []byte) (*noteify.Node, error) {
				return nil, errors.New("bad input")
			},
		}

		parser := nslog.NewLoggingParser(inner, debugLogger(&buf))
		_, err := parser.Parse([]byte("x"))

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=\"bad input\"")
	})

	t.Run("stays quiet above debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Parser{
			ParseFn: func(content []byte) (*noteify.Node, error) {
				return &noteify.Node{Kind: noteify.NodeRoot}, nil
			},
		}

		parser := nslog.NewLoggingParser(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		_, err := parser.Parse([]byte("x"))

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}
