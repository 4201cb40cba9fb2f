package fs

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/fwojciec/noteify"
	"golang.org/x/sync/errgroup"
)

// Defaults for Watcher.
const (
	DefaultInterval    = time.Minute
	DefaultDebounce    = 100 * time.Millisecond
	DefaultConcurrency = 8
)

// Watcher reports changes to markdown files in a vault directory. It reacts
// to file system notifications and rescans the whole vault every Interval
// to catch anything the notifications missed. The first scan reports every
// existing file as created.
//
// A file that disappears while another with identical content appears in
// the same batch is reported as a rename.
type Watcher struct {
	Root        string
	Interval    time.Duration
	Debounce    time.Duration
	Concurrency int
	Handler     noteify.ChangeHandler
	Logger      *slog.Logger

	files map[string]fileState
}

type fileState struct {
	modTime time.Time
	size    int64
	hash    uint64
}

// scanResult is one file found during a scan. Content is set only when the
// file was read.
type scanResult struct {
	path    string
	state   fileState
	content []byte
	err     error
}

// NewWatcher creates a new Watcher for root.
func NewWatcher(root string, handler noteify.ChangeHandler, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		Root:        root,
		Interval:    DefaultInterval,
		Debounce:    DefaultDebounce,
		Concurrency: DefaultConcurrency,
		Handler:     handler,
		Logger:      logger,
	}
}

// Run scans immediately, then applies file system events in batches of
// Debounce until ctx is canceled. The vault is also rescanned every Interval
// and after a notification error.
func (w *Watcher) Run(ctx context.Context) error {
	var events <-chan fsnotify.Event
	var errs <-chan error
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.Logger.Warn("file notifications unavailable", "err", err)
	} else {
		defer fw.Close()
		if err := w.addDirs(fw, w.Root); err != nil {
			w.Logger.Warn("watch failed", "root", w.Root, "err", err)
		}
		events, errs = fw.Events, fw.Errors
	}

	rescan := func() {
		if err := w.Scan(ctx); err != nil && ctx.Err() == nil {
			w.Logger.Error("scan failed", "root", w.Root, "err", err)
		}
	}
	rescan()

	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pending := make(map[string]struct{})
	var flush <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !w.queue(fw, pending, ev) || flush != nil {
				continue
			}
			flush = time.After(debounce)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.Logger.Warn("file notification error, rescanning", "err", err)
			clear(pending)
			flush = nil
			rescan()
		case <-flush:
			flush = nil
			paths := slices.Sorted(maps.Keys(pending))
			clear(pending)
			if err := w.Update(ctx, paths); err != nil && ctx.Err() == nil {
				w.Logger.Error("update failed", "root", w.Root, "err", err)
			}
		case <-ticker.C:
			clear(pending)
			flush = nil
			rescan()
		}
	}
}

// queue records the path of ev for the next batch and reports whether it
// was recorded. New directories are watched as they appear.
func (w *Watcher) queue(fw *fsnotify.Watcher, pending map[string]struct{}, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || w.hidden(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
			if err := w.addDirs(fw, ev.Name); err != nil {
				w.Logger.Warn("watch failed", "path", ev.Name, "err", err)
			}
		}
	}
	pending[ev.Name] = struct{}{}
	return true
}

// hidden reports whether path lies in a hidden directory or is a hidden
// file below Root.
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part != "." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// addDirs watches dir and every directory below it, skipping hidden ones.
func (w *Watcher) addDirs(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.Root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// Scan compares the vault against the previous scan and reports the
// differences to Handler: renames first, then deletions, then creations
// and modifications, each in path order.
func (w *Watcher) Scan(ctx context.Context) error {
	found, err := w.walk(ctx, w.Root)
	if err != nil {
		return err
	}
	return w.sync(ctx, found, func(string) bool { return true }, false)
}

// Update rescans the given absolute paths and reports the differences to
// Handler like Scan does. A path that no longer exists removes every file
// at or below it. A directory is rescanned recursively. Files are reread
// even when their size and modification time look unchanged.
func (w *Watcher) Update(ctx context.Context, paths []string) error {
	var found []*scanResult
	var scopes []string
	for _, path := range paths {
		if path == w.Root {
			return w.Scan(ctx)
		}
		rel, err := RelPath(w.Root, path)
		if err != nil {
			w.Logger.Debug("ignoring path outside vault", "path", path)
			continue
		}
		scopes = append(scopes, rel)

		info, err := os.Lstat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return err
		case info.IsDir():
			sub, err := w.walk(ctx, path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			found = append(found, sub...)
		case info.Mode().IsRegular() && IsMarkdown(info.Name()):
			found = append(found, &scanResult{
				path:  rel,
				state: fileState{modTime: info.ModTime(), size: info.Size()},
			})
		}
	}

	slices.SortFunc(found, func(a, b *scanResult) int { return strings.Compare(a.path, b.path) })
	found = slices.CompactFunc(found, func(a, b *scanResult) bool { return a.path == b.path })
	inScope := func(path string) bool {
		return slices.ContainsFunc(scopes, func(scope string) bool {
			return path == scope || strings.HasPrefix(path, scope+"/")
		})
	}
	return w.sync(ctx, found, inScope, true)
}

// sync reads found and reports every change against the previous state.
// Previously known files for which inScope holds and that are missing from
// found are reported as deleted.
func (w *Watcher) sync(ctx context.Context, found []*scanResult, inScope func(string) bool, reread bool) error {
	if err := w.read(ctx, found, reread); err != nil {
		return err
	}
	if w.files == nil {
		w.files = make(map[string]fileState)
	}

	prev := w.files
	seen := make(map[string]bool, len(found))
	var changed []*scanResult
	for _, r := range found {
		seen[r.path] = true
		if r.err != nil {
			w.Logger.Warn("read failed", "path", r.path, "err", r.err)
			continue
		}
		if old, ok := prev[r.path]; !ok || old.hash != r.state.hash {
			changed = append(changed, r)
		}
	}

	var deleted []string
	for path := range prev {
		if !seen[path] && inScope(path) {
			deleted = append(deleted, path)
		}
	}
	slices.Sort(deleted)
	gone := slices.Clone(deleted)

	changed = w.renames(ctx, prev, changed, &deleted)
	for _, path := range deleted {
		w.Handler.OnDeleted(ctx, path)
	}
	for _, r := range changed {
		w.Handler.OnCreatedOrModified(ctx, r.path, r.content)
	}

	for _, path := range gone {
		delete(w.files, path)
	}
	for _, r := range found {
		if r.err == nil {
			w.files[r.path] = r.state
		}
	}
	return ctx.Err()
}

// renames reports every created file whose content matches a deleted one
// and returns the changes that remain. Matched paths are removed from
// deleted.
func (w *Watcher) renames(ctx context.Context, prev map[string]fileState, changed []*scanResult, deleted *[]string) []*scanResult {
	if len(*deleted) == 0 {
		return changed
	}

	rest := changed[:0]
	for _, r := range changed {
		if _, existed := prev[r.path]; existed {
			rest = append(rest, r)
			continue
		}
		i := slices.IndexFunc(*deleted, func(old string) bool { return prev[old].hash == r.state.hash })
		if i < 0 {
			rest = append(rest, r)
			continue
		}
		oldPath := (*deleted)[i]
		*deleted = slices.Delete(*deleted, i, i+1)
		w.Handler.OnRenamed(ctx, r.path, oldPath, r.content)
	}
	return rest
}

// walk lists every markdown file under dir in path order, skipping hidden
// directories.
func (w *Watcher) walk(ctx context.Context, dir string) ([]*scanResult, error) {
	var found []*scanResult
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.Logger.Debug("skipping unreadable entry", "path", path, "err", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != w.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsMarkdown(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		rel, err := RelPath(w.Root, path)
		if err != nil {
			return err
		}
		found = append(found, &scanResult{
			path:  rel,
			state: fileState{modTime: info.ModTime(), size: info.Size()},
		})
		return nil
	})
	return found, err
}

// read loads and hashes every file whose size or modification time differs
// from the previous scan, or every file with reread set. Unchanged files
// keep their previous hash.
func (w *Watcher) read(ctx context.Context, found []*scanResult, reread bool) error {
	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, r := range found {
		if old, ok := w.files[r.path]; ok && !reread && old.size == r.state.size && old.modTime.Equal(r.state.modTime) {
			r.state.hash = old.hash
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			content, err := os.ReadFile(filepath.Join(w.Root, filepath.FromSlash(r.path)))
			if err != nil {
				r.err = err
				return nil
			}
			r.content = content
			r.state.hash = xxhash.Sum64(content)
			return nil
		})
	}
	return g.Wait()
}
