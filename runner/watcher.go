package runner

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/logger"
	"go.uber.org/zap"
)

// ResultCallback receives the outcome of a regeneration triggered by a change.
type ResultCallback func(FileResult)

// Watcher regenerates input files when they change.
type Watcher struct {
	runner         *Runner
	watcher        *fsnotify.Watcher
	files          map[string]bool
	callbacks      []ResultCallback
	mu             sync.Mutex
	timers         map[string]*time.Timer
	debouncePeriod time.Duration
	ownWrites      map[string]bool // Paths we are about to write; prevents regeneration loops
	ownWritesMu    sync.Mutex
	inflight       sync.WaitGroup
	stopped        bool
	log            *zap.SugaredLogger
}

// NewWatcher watches the directories of inputs. Directories are watched
// rather than files so editors that replace files by renaming are seen.
func NewWatcher(r *Runner, inputs []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		runner:         r,
		watcher:        fw,
		files:          map[string]bool{},
		timers:         map[string]*time.Timer{},
		debouncePeriod: 200 * time.Millisecond,
		ownWrites:      map[string]bool{},
		log:            logger.ComponentLogger("watcher"),
	}

	dirs := map[string]bool{}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to resolve %s", in)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	r.beforeWrite = w.markOwnWrite
	return w, nil
}

// OnResult registers a callback for regeneration results.
func (w *Watcher) OnResult(cb ResultCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

func (w *Watcher) markOwnWrite(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	w.ownWritesMu.Lock()
	defer w.ownWritesMu.Unlock()
	w.ownWrites[abs] = true
}

// checkOwnWrite checks and clears the own-write flag of path
func (w *Watcher) checkOwnWrite(path string) bool {
	w.ownWritesMu.Lock()
	defer w.ownWritesMu.Unlock()
	if w.ownWrites[path] {
		delete(w.ownWrites, path)
		return true
	}
	return false
}

// Run watches until ctx is done or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.files[path] {
				continue
			}
			if w.checkOwnWrite(path) {
				w.log.Debugw("ignoring own write", logger.FieldFile, path)
				continue
			}
			w.log.Infow("change detected", logger.FieldFile, path, "op", event.Op.String())
			w.schedule(ctx, path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watcher error", logger.FieldError, err.Error())
		}
	}
}

// schedule debounces rapid changes of one file.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok && t.Stop() {
		w.inflight.Done()
	}
	w.inflight.Add(1)
	w.timers[path] = time.AfterFunc(w.debouncePeriod, func() {
		defer w.inflight.Done()
		w.regenerate(ctx, path)
	})
}

func (w *Watcher) regenerate(ctx context.Context, path string) {
	sum, _ := w.runner.Run(ctx, []string{path})
	if sum == nil || len(sum.Files) == 0 {
		return
	}
	fr := sum.Files[0]

	w.mu.Lock()
	callbacks := make([]ResultCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(fr)
	}
}

// Stop ends watching and waits for pending regenerations.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for _, t := range w.timers {
		if t.Stop() {
			w.inflight.Done()
		}
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.inflight.Wait()
	return err
}
