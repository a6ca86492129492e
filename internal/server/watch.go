package server

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"BreachProtocol/internal/game"
)

const reloadDebounce = 200 * time.Millisecond

// TuningWatcher reloads the tuning file when it changes on disk and hands
// the result to apply. The file's directory is watched so editors that
// replace the file on save are picked up.
type TuningWatcher struct {
	path      string
	overrides TuningOverrides
	apply     func(game.Tuning)
	log       *zap.Logger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewTuningWatcher prepares a watcher for path. Call Start to begin.
func NewTuningWatcher(path string, overrides TuningOverrides, apply func(game.Tuning), log *zap.Logger) *TuningWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &TuningWatcher{
		path:      filepath.Clean(path),
		overrides: overrides,
		apply:     apply,
		log:       log,
	}
}

// Start begins watching.
func (w *TuningWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tuning watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("tuning watcher: watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.run()
	w.log.Info("watching tuning file", zap.String("path", w.path))
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *TuningWatcher) Stop() error {
	if w.watcher == nil {
		return nil
	}
	close(w.stopCh)
	<-w.doneCh
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

func (w *TuningWatcher) run() {
	defer close(w.doneCh)
	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(reloadDebounce)
			} else {
				debounce.Reset(reloadDebounce)
			}
			fire = debounce.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("tuning watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *TuningWatcher) reload() {
	t, err := loadTuningFromFile(w.path, game.DefaultTuning())
	if err != nil {
		w.log.Warn("tuning reload failed, keeping current tuning", zap.Error(err))
		return
	}
	w.apply(w.overrides.Apply(t))
	w.log.Info("tuning reloaded", zap.Duration("tick", t.TickInterval))
}
