// SPDX-License-Identifier: MPL-2.0

// Package watch provides file-watching with debounced re-execution.
//
// It backs `kernlet run --watch`: the script file (and optionally the seed
// manifest and local config override next to it) is monitored, and the
// script is re-executed in a fresh kernel after a quiet period. Events
// within the debounce window are coalesced so the callback fires once with
// the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period before the callback fires after the
// last filesystem event. Editors produce bursts of events per save (write,
// chmod, rename); the window folds a burst into one callback.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores lists path patterns that are always excluded from watching,
// regardless of user-supplied ignore patterns. These cover VCS metadata,
// dependency caches, editor swap files, OS metadata files, and kernlet's own
// runtime artifacts: the sandbox lock churns on every kernel boot and the
// REPL history file is rewritten on every session, so watching either would
// re-trigger the very run that produced the event.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
	"**/.kernlet.lock",
	"**/.kernlet_history",
}

// Watcher monitors one directory tree and fires a debounced callback when
// matching files change. Run must be called exactly once; a second call
// returns an error.
type Watcher struct {
	cfg     Config
	notify  *fsnotify.Watcher
	ignores []string
	stdout  io.Writer
	stderr  io.Writer
	quiet   time.Duration
	root    string
	started atomic.Bool
}

// New creates a Watcher from the given Config. It validates the config,
// resolves BaseDir to an absolute path, and registers every non-ignored
// directory under it with fsnotify.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root := cfg.BaseDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		root = wd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:     cfg,
		notify:  notify,
		ignores: append(slices.Clone(defaultIgnores), cfg.Ignore...),
		stdout:  cfg.Stdout,
		stderr:  cfg.Stderr,
		quiet:   cfg.Debounce,
		root:    absRoot,
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.stderr == nil {
		w.stderr = os.Stderr
	}
	if w.quiet <= 0 {
		w.quiet = defaultDebounce
	}

	if err := w.watchTree(); err != nil {
		if closeErr := notify.Close(); closeErr != nil {
			fmt.Fprintf(w.stderr, "watch: close after init failure: %v\n", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is cancelled, turning filesystem events into
// debounced OnChange calls. It returns nil on clean cancellation and an
// error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	deb := newDebouncer(w.quiet, func(changed []string) {
		// The timer can win the race against cancellation; OnChange
		// receives ctx and must check it for anything long-running.
		if ctx.Err() != nil {
			return
		}
		if w.cfg.ClearScreen {
			// ANSI escape: clear screen and move cursor to top-left.
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				fmt.Fprintf(w.stderr, "watch: callback error: %v\n", err)
			}
		}
	})
	deb.onBusy = func() {
		fmt.Fprintln(w.stderr, "watch: previous run still in progress, deferring")
	}

	defer func() {
		deb.stop()
		if err := w.notify.Close(); err != nil {
			fmt.Fprintf(w.stderr, "watch: close fsnotify: %v\n", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.notify.Events:
			if !ok {
				return errors.New("watch: event channel closed unexpectedly")
			}
			if rel, ok := w.accept(evt); ok {
				deb.note(rel)
			}

		case err, ok := <-w.notify.Errors:
			if !ok {
				return errors.New("watch: error channel closed unexpectedly")
			}
			if fatalWatchError(err) {
				return fmt.Errorf("watch: unrecoverable error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: %v\n", err)
		}
	}
}

// accept reports whether evt concerns a watched file, returning its path
// relative to the watch root. Directories created under the root start
// being watched as a side effect, whatever the patterns say; patterns
// select files to react to, not directories to track.
func (w *Watcher) accept(evt fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.root, evt.Name)
	if err != nil {
		rel = evt.Name
	}

	if w.ignored(rel) {
		return "", false
	}
	if evt.Has(fsnotify.Create) {
		w.watchNewDir(evt.Name)
	}
	if !w.wanted(rel) {
		return "", false
	}
	return rel, true
}

// watchTree registers every non-ignored directory under the root with
// fsnotify. Ignored directories are pruned from the walk so their
// subtrees never generate events.
func (w *Watcher) watchTree() error {
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			// One unreadable entry should not stop the watch; report
			// the path and move on.
			fmt.Fprintf(w.stderr, "watch: skipping inaccessible path %q: %v\n", path, walkErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		if w.ignored(rel) || w.ignored(rel+"/") {
			return filepath.SkipDir
		}

		if addErr := w.notify.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

// watchNewDir extends the watch to a directory created after the initial
// walk. Non-directories and ignored paths are left alone.
func (w *Watcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || w.ignored(rel) || w.ignored(rel+"/") {
		return
	}

	if addErr := w.notify.Add(path); addErr != nil {
		fmt.Fprintf(w.stderr, "watch: add new directory %q: %v\n", path, addErr)
	}
}

// ignored reports whether rel matches any built-in or user ignore pattern.
func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// wanted applies the configured watch patterns; with none configured,
// every path is wanted.
func (w *Watcher) wanted(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

// matchAny reports whether rel, normalised to forward slashes, matches
// any of the patterns. Malformed patterns never match; Config.Validate
// rejects them up front.
func matchAny(patterns []string, rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, slashed); err == nil && ok {
			return true
		}
	}
	return false
}
