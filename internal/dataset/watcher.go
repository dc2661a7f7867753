package dataset

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long a file must stay quiet before its change is
// reported.
const debounce = 100 * time.Millisecond

// Change reports that one watched table, or the manifest, was written,
// created, removed or renamed.
type Change struct {
	File    string // absolute path
	Removed bool
}

// Watcher monitors a manifest and the tables it names. Directories are
// watched rather than files so editors that replace files on save are
// still seen.
type Watcher struct {
	Changes <-chan Change

	files   map[string]bool
	changes chan Change
	stop    chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher over manifestPath and every table m names.
func NewWatcher(manifestPath string, m *Manifest) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	files := make(map[string]bool)
	if abs, err := filepath.Abs(manifestPath); err == nil {
		files[abs] = true
	}
	for _, f := range m.Files() {
		files[filepath.Clean(f)] = true
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Changes: ch,
		files:   files,
		changes: ch,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for d := range dirs {
		if err := w.watcher.Add(d); err != nil {
			w.watcher.Close()
			return err
		}
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. Changes not yet
// received are dropped, so Stop never blocks on a full channel.
func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

// Watched reports whether path is one of the watched files.
func (w *Watcher) Watched(path string) bool {
	return w.files[filepath.Clean(path)]
}

// send delivers c unless the watcher is stopping.
func (w *Watcher) send(c Change) bool {
	select {
	case w.changes <- c:
		return true
	case <-w.stop:
		return false
	}
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	removed := make(map[string]bool)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					if !w.send(Change{File: file, Removed: removed[file]}) {
						break
					}
				}
				return
			}
			if !w.Watched(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending[filepath.Clean(event.Name)] = time.Now()
				delete(removed, filepath.Clean(event.Name))
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[filepath.Clean(event.Name)] = time.Now()
				removed[filepath.Clean(event.Name)] = true
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= debounce {
					if !w.send(Change{File: file, Removed: removed[file]}) {
						return
					}
					delete(pending, file)
					delete(removed, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

		case <-w.stop:
			return
		}
	}
}
