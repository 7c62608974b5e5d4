package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kestrelhq/ddrgen/internal/logging"
)

// Watcher re-runs manifest entries when their input documents change.
// Changes are debounced so an editor save burst triggers one wave.
type Watcher struct {
	runner    *Runner
	debounce  time.Duration
	onSummary func(*Summary)
	log       *slog.Logger

	watcher *fsnotify.Watcher
	index   map[string][]Entry // cleaned input path -> entries fed by it

	mu      sync.Mutex
	pending map[string]Entry // propertyID -> entry awaiting re-run
	timer   *time.Timer
	stopped bool

	runMu sync.Mutex // serializes re-run waves
	ctx   context.Context
	wg    sync.WaitGroup
}

// NewWatcher builds a watcher over the manifest's input files. onSummary, if
// non-nil, is called after each completed re-run wave.
func NewWatcher(runner *Runner, m *Manifest, debounce time.Duration, onSummary func(*Summary)) *Watcher {
	return &Watcher{
		runner:    runner,
		debounce:  debounce,
		onSummary: onSummary,
		log:       logging.New("watch"),
		index:     buildIndex(m),
		pending:   make(map[string]Entry),
	}
}

// buildIndex maps each input file to the entries it feeds. A document shared
// between properties re-runs every one of them.
func buildIndex(m *Manifest) map[string][]Entry {
	idx := make(map[string][]Entry)
	for _, e := range m.Properties {
		for _, p := range []string{e.InspectionPath, e.ThermalPath} {
			key := filepath.Clean(p)
			idx[key] = append(idx[key], e)
		}
	}
	return idx
}

// Watch blocks until ctx is cancelled, re-running affected entries after
// each debounced burst of changes.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w.watcher = fsw
	w.ctx = ctx

	// Watch parent directories: editors often replace files on save, which
	// drops file-level watches.
	dirs := make(map[string]bool)
	for path := range w.index {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.log.Info("watching inputs",
		"files", len(w.index),
		"dirs", len(dirs),
		"debounce", w.debounce)

	w.wg.Add(1)
	go w.eventLoop()

	<-ctx.Done()
	w.stop()
	w.wg.Wait()
	return ctx.Err()
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	_ = w.watcher.Close()
}

// eventLoop processes filesystem events until the watcher closes.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)

		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	entries, ok := w.index[filepath.Clean(event.Name)]
	if !ok {
		return
	}
	w.enqueue(entries)
}

// enqueue marks entries for the next wave and resets the debounce timer.
func (w *Watcher) enqueue(entries []Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	for _, e := range entries {
		w.pending[e.PropertyID] = e
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush runs the pending entries as one wave.
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	entries := make([]Entry, 0, len(w.pending))
	for _, e := range w.pending {
		entries = append(entries, e)
	}
	w.pending = make(map[string]Entry)
	w.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].PropertyID < entries[j].PropertyID })

	w.runMu.Lock()
	defer w.runMu.Unlock()

	w.log.Info("inputs changed, re-running", "properties", len(entries))
	summary, err := w.runner.Run(w.ctx, &Manifest{Properties: entries})
	if err != nil {
		w.log.Warn("re-run interrupted", "error", err)
		return
	}
	if w.onSummary != nil {
		w.onSummary(summary)
	}
}
