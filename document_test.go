package noteify_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/fwojciec/noteify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_MarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes wire shape without source lines", func(t *testing.T) {
		t.Parallel()

		doc := &noteify.Root{
			Path: "a.md",
			Blocks: []noteify.Block{
				&noteify.Section{ID: 4, Level: 1, Line: 12, Children: []noteify.Inline{&noteify.Text{Content: "Title"}}, Blocks: []noteify.Block{
					&noteify.ContentBlock{Children: []noteify.Inline{&noteify.Text{Content: "body"}}},
				}},
			},
		}

		data, err := json.Marshal(doc)
		require.NoError(t, err)

		expected := `{"kind":"root","filename":"a.md","blocks":[` +
			`{"kind":"section","id":4,"level":1,"blocks":[{"kind":"block","children":[{"kind":"text","content":"body"}]}],` +
			`"children":[{"kind":"text","content":"Title"}]}]}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("encodes empty bodies as arrays", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(&noteify.Root{Path: "a.md", Blocks: []noteify.Block{&noteify.Section{ID: 1, Level: 2}}})
		require.NoError(t, err)

		assert.JSONEq(t, `{"kind":"root","filename":"a.md","blocks":[{"kind":"section","id":1,"level":2,"blocks":[],"children":[]}]}`, string(data))
	})
}

func TestRoot_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes nested tree", func(t *testing.T) {
		t.Parallel()

		data := `{"kind":"root","filename":"a.md","blocks":[{"kind":"section","id":2,"level":1,` +
			`"blocks":[{"kind":"block","children":[{"kind":"text","content":"x"}]}],"children":[{"kind":"text","content":"T"}]}]}`

		var doc noteify.Root
		require.NoError(t, json.Unmarshal([]byte(data), &doc))

		assert.Equal(t, "a.md", doc.Path)
		require.Len(t, doc.Blocks, 1)
		s := doc.Blocks[0].(*noteify.Section)
		assert.Equal(t, noteify.SectionID(2), s.ID)
		assert.Equal(t, "T", s.Title())
		assert.Equal(t, []noteify.Block{&noteify.ContentBlock{Children: []noteify.Inline{&noteify.Text{Content: "x"}}}}, s.Blocks)
	})

	t.Run("rejects unknown block kind", func(t *testing.T) {
		t.Parallel()

		var doc noteify.Root
		err := json.Unmarshal([]byte(`{"kind":"root","filename":"a.md","blocks":[{"kind":"table"}]}`), &doc)

		assert.Equal(t, noteify.EINVALID, noteify.ErrorCode(err))
	})

	t.Run("rejects non-root document", func(t *testing.T) {
		t.Parallel()

		var doc noteify.Root
		err := json.Unmarshal([]byte(`{"kind":"block","children":[]}`), &doc)

		assert.Equal(t, noteify.EINVALID, noteify.ErrorCode(err))
	})
}

func TestIDAllocator_Next(t *testing.T) {
	t.Parallel()

	t.Run("starts at one", func(t *testing.T) {
		t.Parallel()

		var alloc noteify.IDAllocator

		assert.Equal(t, noteify.SectionID(1), alloc.Next())
		assert.Equal(t, noteify.SectionID(2), alloc.Next())
	})

	t.Run("is unique under concurrent use", func(t *testing.T) {
		t.Parallel()

		var alloc noteify.IDAllocator
		var mu sync.Mutex
		seen := make(map[noteify.SectionID]bool)
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 100 {
					id := alloc.Next()
					mu.Lock()
					seen[id] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, seen, 800)
	})
}
