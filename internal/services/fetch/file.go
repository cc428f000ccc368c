package fetch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/quota-watch-tui/internal/logger"
)

// File reads snapshots from a local JSON file, useful for inspecting
// captured payloads without the service running.
type File struct {
	path string
}

// NewFile creates a file source for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Location returns the file path.
func (f *File) Location() string {
	return f.path
}

// Fetch reads the file. A missing or unreadable file classifies as
// unreachable, a non-JSON file as a content-type mismatch, mirroring
// the HTTP source.
func (f *File) Fetch(ctx context.Context) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindUnreachable, Source: f.path, Err: err}
	}

	body, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, Source: f.path, Err: err}
	}

	if !json.Valid(body) {
		return nil, &Error{Kind: KindContentType, Source: f.path, Detail: "file content is not JSON", Body: body}
	}

	return &Payload{Body: body, At: time.Now()}, nil
}

// Watcher triggers a callback when the watched snapshot file changes,
// debounced so editors that write in bursts cause one refresh.
type Watcher struct {
	path     string
	onChange func()
	watcher  *fsnotify.Watcher
	stopChan chan struct{}

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher watches the directory containing path and invokes
// onChange after each settled modification of the file.
func NewWatcher(path string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory (to catch file creation/deletion)
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fsw,
		stopChan: make(chan struct{}),
	}

	go w.watchLoop()
	return w, nil
}

// watchLoop handles file system events with debouncing.
func (w *Watcher) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.onChange)
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("snapshot file watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stopChan)

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}
