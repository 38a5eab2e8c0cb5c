package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cssvars.dev/cvls/internal/log"
	"cssvars.dev/cvls/internal/uriutil"
	"cssvars.dev/cvls/internal/vars"
	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the event bursts editors and build tools emit
// for a single save.
const debounceDelay = 100 * time.Millisecond

// Watcher re-indexes workspace files as they change on disk. Files open in
// the editor are skipped: their truth is the document buffer, not the disk.
type Watcher struct {
	scanner *Scanner
	index   *vars.Index
	isOpen  func(uri string) bool
	fsw     *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher sharing the scanner's root and filters.
// isOpen reports whether a URI is currently open in the editor; nil means
// no files are.
func NewWatcher(s *Scanner, isOpen func(uri string) bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if isOpen == nil {
		isOpen = func(string) bool { return false }
	}
	return &Watcher{
		scanner: s,
		index:   s.index,
		isOpen:  isOpen,
		fsw:     fsw,
		timers:  make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}, nil
}

// Start registers the workspace directories and begins handling events.
func (w *Watcher) Start() error {
	if err := w.addDirs(w.scanner.root); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop ends event handling and cancels pending debounce timers.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()

		w.mu.Lock()
		defer w.mu.Unlock()
		for _, t := range w.timers {
			t.Stop()
		}
	})
}

func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Debug("watching %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("file watcher: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.cancelTimer(path)
		if w.scanner.Matches(path) {
			w.index.RemoveFile(uriutil.PathToURI(path))
		}
		return
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// New directories need their own watch
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addDirs(path); err != nil {
				log.Debug("watching new directory %s: %v", path, err)
			}
			return
		}
	}

	if !w.scanner.Matches(path) {
		return
	}
	w.debounce(path)
}

// debounce schedules a re-index of path, replacing any pending one.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(debounceDelay, func() {
		w.cancelTimer(path)
		w.reindex(path)
	})
}

func (w *Watcher) cancelTimer(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) reindex(path string) {
	select {
	case <-w.done:
		return
	default:
	}

	uri := uriutil.PathToURI(path)
	if w.isOpen(uri) {
		// The editor buffer already drives this file's index entries
		return
	}
	if w.scanner.scanOne(path) {
		log.Debug("re-indexed %s", path)
	}
}
