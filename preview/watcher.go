package preview

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDelay coalesces the burst of filesystem events editors emit for
// a single save (write + chmod, or rename-over for atomic saves).
const debounceDelay = 100 * time.Millisecond

// Watcher reports changes to a single file. Editors replace files in
// different ways, so the watch is on the parent directory and events are
// filtered down to the one path.
type Watcher struct {
	path   string
	fsw    *fsnotify.Watcher
	logger *zap.Logger
	events chan struct{}
}

// NewWatcher starts watching path's directory for changes to path.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()

		return nil, err
	}

	w := &Watcher{
		path:   abs,
		fsw:    fsw,
		logger: logger,
		events: make(chan struct{}, 1),
	}

	go w.loop()

	return w, nil
}

// Events returns the channel of change notifications. It is closed when
// the watcher is closed.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.events)

	var timer *time.Timer

	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.logger.Debug("File event", zap.String("op", event.Op.String()))

			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-fire
				}
				timer.Reset(debounceDelay)
			}

		case <-fire:
			timer = nil
			fire = nil

			select {
			case w.events <- struct{}{}:
			default: // a notification is already pending
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

			w.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}
