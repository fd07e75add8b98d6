// Package watch monitors the schema definition file and triggers regeneration
// on change.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// SchemaWatcher monitors one schema file and invokes a callback after writes.
// Editors often emit several events per save, so callbacks are debounced.
type SchemaWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func() error
	debounce time.Duration
	logger   *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher for the given schema file. onChange runs after each
// debounced change; its error is logged, not fatal, so a broken edit does not
// kill the watch loop.
func New(path string, onChange func() error, logger *zap.Logger) (*SchemaWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	return &SchemaWatcher{
		watcher:  w,
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: 100 * time.Millisecond,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than the file
// itself because editors that save via rename replace the inode.
func (w *SchemaWatcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Debug("watching schema file", zap.String("path", w.path))

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *SchemaWatcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stopChan) })
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *SchemaWatcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.logger.Debug("schema file changed", zap.String("path", w.path))
			if err := w.onChange(); err != nil {
				w.logger.Warn("regeneration failed", zap.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}
