package fs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/noteify/fs"
	"github.com/fwojciec/noteify/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects change notifications as strings.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) handler() *mock.ChangeHandler {
	return &mock.ChangeHandler{
		OnCreatedOrModifiedFn: func(ctx context.Context, path string, content []byte) {
			r.add(fmt.Sprintf("set %s %q", path, content))
		},
		OnDeletedFn: func(ctx context.Context, path string) {
			r.add("delete " + path)
		},
		OnRenamedFn: func(ctx context.Context, path, oldPath string, content []byte) {
			r.add(fmt.Sprintf("rename %s %s %q", oldPath, path, content))
		},
	}
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// take returns and clears the recorded events.
func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	return events
}

func writeFile(t *testing.T, root, path, content string) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

// bump moves the modification time forward so the next scan rereads path.
func bump(t *testing.T, root, path string) {
	t.Helper()

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, filepath.FromSlash(path)), later, later))
}

func newWatcher(t *testing.T) (string, *fs.Watcher, *recorder) {
	t.Helper()

	root := t.TempDir()
	rec := &recorder{}
	return root, fs.NewWatcher(root, rec.handler(), nil), rec
}

func TestWatcher_Scan(t *testing.T) {
	t.Parallel()

	t.Run("reports existing markdown files on first scan", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "b.md", "# B")
		writeFile(t, root, "a.md", "# A")
		writeFile(t, root, "notes/daily/c.md", "# C")
		writeFile(t, root, "image.png", "png")
		writeFile(t, root, ".obsidian/hidden.md", "# hidden")

		require.NoError(t, w.Scan(context.Background()))

		assert.Equal(t, []string{
			`set a.md "# A"`,
			`set b.md "# B"`,
			`set notes/daily/c.md "# C"`,
		}, rec.take())
	})

	t.Run("reports nothing when the vault is unchanged", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		require.NoError(t, w.Scan(context.Background()))

		assert.Empty(t, rec.take())
	})

	t.Run("reports modified files", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		writeFile(t, root, "a.md", "# A changed")
		bump(t, root, "a.md")
		require.NoError(t, w.Scan(context.Background()))

		assert.Equal(t, []string{`set a.md "# A changed"`}, rec.take())
	})

	t.Run("ignores touched files with identical content", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		bump(t, root, "a.md")
		require.NoError(t, w.Scan(context.Background()))

		assert.Empty(t, rec.take())
	})

	t.Run("reports deleted files", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		writeFile(t, root, "b.md", "# B")
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		require.NoError(t, os.Remove(filepath.Join(root, "a.md")))
		require.NoError(t, w.Scan(context.Background()))

		assert.Equal(t, []string{"delete a.md"}, rec.take())
	})

	t.Run("reports a moved file as a rename", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		writeFile(t, root, "other.md", "# Other")
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		require.NoError(t, os.MkdirAll(filepath.Join(root, "archive"), 0755))
		require.NoError(t, os.Rename(filepath.Join(root, "a.md"), filepath.Join(root, "archive", "a.md")))
		require.NoError(t, w.Scan(context.Background()))

		assert.Equal(t, []string{`rename a.md archive/a.md "# A"`}, rec.take())
	})

	t.Run("reports a delete and a create when content differs", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		require.NoError(t, os.Remove(filepath.Join(root, "a.md")))
		writeFile(t, root, "b.md", "# B")
		require.NoError(t, w.Scan(context.Background()))

		assert.Equal(t, []string{"delete a.md", `set b.md "# B"`}, rec.take())
	})

	t.Run("reads many files concurrently", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		w.Concurrency = 3
		for i := range 50 {
			writeFile(t, root, fmt.Sprintf("n%02d.md", i), fmt.Sprintf("# %d", i))
		}

		require.NoError(t, w.Scan(context.Background()))

		events := rec.take()
		require.Len(t, events, 50)
		assert.Equal(t, `set n00.md "# 0"`, events[0])
		assert.Equal(t, `set n49.md "# 49"`, events[49])
	})

	t.Run("returns error when root does not exist", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		w := fs.NewWatcher(filepath.Join(t.TempDir(), "missing"), rec.handler(), nil)

		err := w.Scan(context.Background())

		require.Error(t, err)
		assert.Empty(t, rec.take())
	})
}

func TestWatcher_Update(t *testing.T) {
	t.Parallel()

	t.Run("rereads files with unchanged size and modification time", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		path := filepath.Join(root, "a.md")
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		writeFile(t, root, "a.md", "# B")
		require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))
		require.NoError(t, w.Scan(context.Background()))
		require.Empty(t, rec.take())

		require.NoError(t, w.Update(context.Background(), []string{path}))

		assert.Equal(t, []string{`set a.md "# B"`}, rec.take())
	})

	t.Run("removes every file below a missing directory", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "notes/a.md", "# A")
		writeFile(t, root, "notes/deep/b.md", "# B")
		writeFile(t, root, "notes-c.md", "# C")
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		require.NoError(t, os.RemoveAll(filepath.Join(root, "notes")))
		require.NoError(t, w.Update(context.Background(), []string{filepath.Join(root, "notes")}))

		assert.Equal(t, []string{"delete notes/a.md", "delete notes/deep/b.md"}, rec.take())
	})

	t.Run("scans new directories recursively", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		require.NoError(t, w.Scan(context.Background()))

		writeFile(t, root, "new/deep/a.md", "# A")
		writeFile(t, root, "new/b.md", "# B")
		writeFile(t, root, "new/.hidden/c.md", "# C")
		require.NoError(t, w.Update(context.Background(), []string{filepath.Join(root, "new")}))

		assert.Equal(t, []string{`set new/b.md "# B"`, `set new/deep/a.md "# A"`}, rec.take())
	})

	t.Run("reports a move between directories as a rename", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		require.NoError(t, os.MkdirAll(filepath.Join(root, "archive"), 0755))
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		require.NoError(t, os.Rename(filepath.Join(root, "a.md"), filepath.Join(root, "archive", "a.md")))
		require.NoError(t, w.Update(context.Background(), []string{
			filepath.Join(root, "a.md"),
			filepath.Join(root, "archive", "a.md"),
		}))

		assert.Equal(t, []string{`rename a.md archive/a.md "# A"`}, rec.take())
	})

	t.Run("leaves files outside the updated paths alone", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		writeFile(t, root, "b.md", "# B")
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		require.NoError(t, os.Remove(filepath.Join(root, "b.md")))
		writeFile(t, root, "a.md", "# A changed")
		require.NoError(t, w.Update(context.Background(), []string{
			filepath.Join(root, "a.md"),
			filepath.Join(filepath.Dir(root), "elsewhere.md"),
		}))

		assert.Equal(t, []string{`set a.md "# A changed"`}, rec.take())

		require.NoError(t, w.Scan(context.Background()))
		assert.Equal(t, []string{"delete b.md"}, rec.take())
	})

	t.Run("rescans everything when the root changes", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		writeFile(t, root, "a.md", "# A")
		require.NoError(t, w.Scan(context.Background()))
		rec.take()

		writeFile(t, root, "b.md", "# B")
		require.NoError(t, w.Update(context.Background(), []string{root}))

		assert.Equal(t, []string{`set b.md "# B"`}, rec.take())
	})
}

// waitFor waits until rec has seen every event in want, in any batch.
func waitFor(t *testing.T, rec *recorder, want ...string) {
	t.Helper()

	var seen []string
	require.Eventually(t, func() bool {
		seen = append(seen, rec.take()...)
		for _, event := range want {
			if !slices.Contains(seen, event) {
				return false
			}
		}
		return true
	}, 5*time.Second, 5*time.Millisecond, "want %v", want)
}

// run starts w in the background and stops it when the test ends.
func run(t *testing.T, w *fs.Watcher) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	t.Run("applies file events without waiting for a rescan", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		w.Interval = time.Hour
		w.Debounce = 50 * time.Millisecond
		writeFile(t, root, "a.md", "# A")
		require.NoError(t, os.MkdirAll(filepath.Join(root, "archive"), 0755))
		run(t, w)
		waitFor(t, rec, `set a.md "# A"`)

		writeFile(t, root, "b.md", "# B")
		waitFor(t, rec, `set b.md "# B"`)

		writeFile(t, root, "b.md", "# B changed")
		waitFor(t, rec, `set b.md "# B changed"`)

		require.NoError(t, os.Rename(filepath.Join(root, "a.md"), filepath.Join(root, "archive", "a.md")))
		waitFor(t, rec, `rename a.md archive/a.md "# A"`)

		require.NoError(t, os.Remove(filepath.Join(root, "b.md")))
		waitFor(t, rec, "delete b.md")
	})

	t.Run("watches directories created after start", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		w.Interval = time.Hour
		w.Debounce = 20 * time.Millisecond
		run(t, w)

		writeFile(t, root, "new/deep/a.md", "# A")
		waitFor(t, rec, `set new/deep/a.md "# A"`)

		writeFile(t, root, "new/deep/b.md", "# B")
		waitFor(t, rec, `set new/deep/b.md "# B"`)
	})

	t.Run("ignores hidden directories", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		w.Interval = time.Hour
		w.Debounce = 20 * time.Millisecond
		run(t, w)

		writeFile(t, root, ".obsidian/workspace.md", "# hidden")
		writeFile(t, root, "a.md", "# A")
		waitFor(t, rec, `set a.md "# A"`)

		assert.Never(t, func() bool { return len(rec.take()) > 0 }, 200*time.Millisecond, 20*time.Millisecond)
	})

	t.Run("rescans on the interval", func(t *testing.T) {
		t.Parallel()

		root, w, rec := newWatcher(t)
		w.Interval = 10 * time.Millisecond
		w.Debounce = time.Hour
		writeFile(t, root, "a.md", "# A")
		run(t, w)
		waitFor(t, rec, `set a.md "# A"`)

		writeFile(t, root, "b.md", "# B")
		waitFor(t, rec, `set b.md "# B"`)
	})
}
