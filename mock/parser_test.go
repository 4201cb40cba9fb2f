package mock_test

import (
	"testing"

	"github.com/fwojciec/noteify"
	"github.com/fwojciec/noteify/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ImplementsInterface(t *testing.T) {
	t.Parallel()

	// Verify mock can be used where Parser is expected
	var _ noteify.Parser = &mock.Parser{}
}

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("delegates to ParseFn", func(t *testing.T) {
		t.Parallel()

		var calledWith []byte
		want := &noteify.Node{Kind: noteify.NodeRoot}
		p := &mock.Parser{
			ParseFn: func(content []byte) (*noteify.Node, error) {
				calledWith = content
				return want, nil
			},
		}

		got, err := p.Parse([]byte("# Title"))

		require.NoError(t, err)
		assert.Same(t, want, got)
		assert.Equal(t, []byte("# Title"), calledWith)
	})
}
