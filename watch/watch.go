// Package watch keeps opened documents in sync with their files on disk.
//
// A Watcher parses each registered file, opens it through an xdom.Manager
// and watches its directory. After a burst of writes settles, the file is
// re-parsed and swapped in with Manager.Replace under write access, so
// anchors taken earlier keep resolving and stale elements report
// Invalidated. When a shared counter is configured it is bumped after every
// reload, which invalidates stamped caches keyed on the global stamp.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/xmltree"
)

// DefaultDebounce is the quiet period after the last event before a reload.
const DefaultDebounce = 200 * time.Millisecond

// ErrClosed is returned by operations on a closed Watcher.
var ErrClosed = errors.New("watch: watcher closed")

// Reload describes the outcome of one reload.
type Reload struct {
	Path string
	File *xdom.File // The new file; nil when Err is set.
	Err  error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithCounter parses documents with a shared counter and bumps it after
// each reload. Pass the same counter to xdom.WithTracker.
func WithCounter(c *xmltree.Counter) Option {
	return func(w *Watcher) { w.counter = c }
}

// OnReload registers a callback invoked after each reload attempt. It runs
// on the watcher goroutine outside any access scope.
func OnReload(fn func(Reload)) Option {
	return func(w *Watcher) { w.onReload = fn }
}

// Watcher reloads documents when their files change.
type Watcher struct {
	m        *xdom.Manager
	fsw      *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	counter  *xmltree.Counter
	onReload func(Reload)

	mu      sync.Mutex
	files   map[string]*xdom.File // by cleaned absolute path
	dirs    map[string]int
	pending map[string]time.Time
	closed  bool

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// New creates a watcher over m. Call Run to start processing events.
func New(m *xdom.Manager, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		m:        m,
		fsw:      fsw,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
		files:    map[string]*xdom.File{},
		dirs:     map[string]int{},
		pending:  map[string]time.Time{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

func (w *Watcher) parseOptions() []xmltree.Option {
	if w.counter == nil {
		return nil
	}
	return []xmltree.Option{xmltree.WithCounter(w.counter)}
}

// Open parses path, opens it through the manager and starts watching it.
// Opening a path twice returns the current file.
func (w *Watcher) Open(path string) (*xdom.File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	abs = filepath.Clean(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if f, ok := w.files[abs]; ok {
		return f, nil
	}
	doc, err := xmltree.ParseFile(abs, w.parseOptions()...)
	if err != nil {
		return nil, err
	}
	f, err := w.m.Open(doc)
	if err != nil {
		return nil, err
	}
	// editors often replace files by rename, so the directory is watched
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			w.m.Close(f)
			return nil, fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = f
	w.logger.Info("watching file", zap.String("path", abs), zap.String("id", f.ID()))
	return f, nil
}

// File returns the current file for path.
func (w *Watcher) File(path string) (*xdom.File, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[filepath.Clean(abs)]
	return f, ok
}

// Forget stops watching path and closes its file.
func (w *Watcher) Forget(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	abs = filepath.Clean(abs)
	w.mu.Lock()
	f, ok := w.files[abs]
	if ok {
		delete(w.files, abs)
		delete(w.pending, abs)
		dir := filepath.Dir(abs)
		if w.dirs[dir]--; w.dirs[dir] <= 0 {
			delete(w.dirs, dir)
			_ = w.fsw.Remove(dir)
		}
	}
	w.mu.Unlock()
	if ok {
		w.m.Close(f)
	}
}

// Run processes events until ctx is done or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.done)
	tick := time.NewTicker(max(w.debounce/4, time.Millisecond))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case now := <-tick.C:
			for _, p := range w.due(now) {
				w.reload(ctx, p)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	p := filepath.Clean(ev.Name)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[p]; !ok {
		return
	}
	w.logger.Debug("file changed", zap.String("path", p), zap.Stringer("op", ev.Op))
	w.pending[p] = time.Now()
}

// due removes and returns the paths quiet for at least the debounce period.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for p, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			out = append(out, p)
			delete(w.pending, p)
		}
	}
	return out
}

func (w *Watcher) reload(ctx context.Context, path string) {
	res := Reload{Path: path}
	res.File, res.Err = w.replace(ctx, path)
	if res.Err != nil {
		w.logger.Warn("reload failed", zap.String("path", path), zap.Error(res.Err))
	} else {
		w.logger.Info("file reloaded", zap.String("path", path), zap.String("id", res.File.ID()))
	}
	if w.onReload != nil {
		w.onReload(res)
	}
}

func (w *Watcher) replace(ctx context.Context, path string) (*xdom.File, error) {
	w.mu.Lock()
	old, ok := w.files[path]
	w.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("watch: %s is not watched", path)
	}
	// a half-written file fails to parse; the old tree stays in place and
	// the next write triggers another attempt
	doc, err := xmltree.ParseFile(path, w.parseOptions()...)
	if err != nil {
		return nil, err
	}
	var nf *xdom.File
	err = w.m.Write(ctx, func(*xdom.WriteAccess) error {
		var err error
		nf, err = w.m.Replace(old, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	if w.files[path] == old {
		w.files[path] = nf
	}
	w.mu.Unlock()
	if w.counter != nil {
		w.counter.Inc()
	}
	return nf, nil
}

// Close stops Run and releases the OS watcher. Opened files stay open.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.stop)
		err = w.fsw.Close()
	})
	return err
}

// Done is closed when Run returns.
func (w *Watcher) Done() <-chan struct{} { return w.done }
