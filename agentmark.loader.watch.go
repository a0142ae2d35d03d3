package agentmark

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher defaults
const (
	DefaultWatchDebounce = 200 * time.Millisecond
	watchTick            = 50 * time.Millisecond
)

// Watch event operations
const (
	WatchOpChanged = "changed"
	WatchOpRemoved = "removed"
)

// WatchEvent reports a prompt file that changed under a FileLoader. Doc is
// the freshly loaded document; Err is set when the file no longer loads.
type WatchEvent struct {
	Path string
	Op   string
	Doc  *Node
	Err  error
}

// WatchHandler receives watch events on the watcher goroutine
type WatchHandler func(ctx context.Context, event WatchEvent)

// Watcher reloads prompt files from a FileLoader as they change on disk.
// Rapid successive writes to one file are coalesced into a single event.
// Dataset files are ignored.
type Watcher struct {
	mu       sync.Mutex
	loader   *FileLoader
	watcher  *fsnotify.Watcher
	handler  WatchHandler
	logger   *zap.Logger
	debounce time.Duration
	pending  map[string]pendingEvent
}

type pendingEvent struct {
	op   string
	seen time.Time
}

// NewWatcher watches every directory below the loader's base.
func NewWatcher(loader *FileLoader, handler WatchHandler, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, NewLoaderError(ErrMsgWatcherFailed, loader.Base(), err)
	}

	err = filepath.WalkDir(loader.Base(), func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return nil, NewLoaderError(ErrMsgWatcherFailed, loader.Base(), err)
	}

	return &Watcher{
		loader:   loader,
		watcher:  fw,
		handler:  handler,
		logger:   logger,
		debounce: DefaultWatchDebounce,
		pending:  make(map[string]pendingEvent),
	}, nil
}

// SetDebounce changes the quiet period before an event is delivered
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Run delivers events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(LogMsgWatcherStarted, zap.String(LogFieldPath, w.loader.Base()))

	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.record(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(LogMsgWatcherError, zap.Error(err))

		case <-ticker.C:
			w.flush(ctx, time.Now())
		}
	}
}

// Close stops the underlying watcher; Run returns soon after.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) record(event fsnotify.Event) {
	info, statErr := os.Stat(event.Name)
	if statErr == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			_ = w.watcher.Add(event.Name)
		}
		return
	}
	if strings.EqualFold(filepath.Ext(event.Name), JSONLExtension) {
		return
	}

	var op string
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = WatchOpRemoved
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		op = WatchOpChanged
	default:
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = pendingEvent{op: op, seen: time.Now()}
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	ops := make(map[string]string)
	for path, p := range w.pending {
		if now.Sub(p.seen) >= w.debounce {
			ready = append(ready, path)
			ops[path] = p.op
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, full := range ready {
		rel, err := filepath.Rel(w.loader.Base(), full)
		if err != nil {
			rel = full
		}
		event := WatchEvent{Path: filepath.ToSlash(rel), Op: ops[full]}
		if event.Op == WatchOpChanged {
			event.Doc, event.Err = w.loader.Load(ctx, rel)
		}
		w.logger.Debug(LogMsgWatcherEvent,
			zap.String(LogFieldPath, event.Path),
			zap.String(LogFieldEvent, event.Op))
		if w.handler != nil {
			w.handler(ctx, event)
		}
	}
}
