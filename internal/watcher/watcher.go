package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is a change to one of the watched files.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher reports writes to a fixed set of files. It watches their parent
// directories, so a log that is rotated away and recreated keeps being
// reported.
type Watcher struct {
	fsw     *fsnotify.Watcher
	Events  chan Event
	paths   []string
	tracked map[string]bool
	logger  *zap.Logger
}

// New creates a Watcher for the given file paths.
func New(paths []string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		Events:  make(chan Event, 256),
		tracked: make(map[string]bool),
		logger:  logger,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		if w.tracked[abs] {
			continue
		}
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := fsw.Add(dir); err != nil {
				fsw.Close()
				return nil, fmt.Errorf("watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
		w.tracked[abs] = true
		w.paths = append(w.paths, abs)
	}

	return w, nil
}

// Start forwards events for the watched files until the context is
// cancelled, then closes Events.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.tracked[ev.Name] {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
				select {
				case w.Events <- Event{Path: ev.Name, Op: ev.Op}:
				case <-ctx.Done():
					return
				}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.logger.Info("watched file moved away, waiting for it to reappear",
					zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Paths returns the absolute paths being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}

// Coalesce calls fn for a path once no new event for it has arrived for
// delay. fn runs on the calling goroutine. It returns when ctx is done or
// events is closed.
func Coalesce(ctx context.Context, events <-chan Event, delay time.Duration, fn func(path string)) {
	d := newDebouncer(delay, fn)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if delay <= 0 {
				fn(ev.Path)
				continue
			}
			d.schedule(ctx, ev.Path)
		case f := <-d.fire:
			d.fired(f)
		}
	}
}

// firing is a timer expiry for one scheduling of a path.
type firing struct {
	path string
	gen  uint64
}

type pending struct {
	timer *time.Timer
	gen   uint64
}

// debouncer tracks one timer per path. Every schedule bumps the path's
// generation, so a timer that fired before being superseded is ignored.
type debouncer struct {
	delay   time.Duration
	fn      func(path string)
	fire    chan firing
	done    chan struct{}
	pending map[string]pending
	gen     uint64
}

func newDebouncer(delay time.Duration, fn func(path string)) *debouncer {
	return &debouncer{
		delay:   delay,
		fn:      fn,
		fire:    make(chan firing),
		done:    make(chan struct{}),
		pending: make(map[string]pending),
	}
}

// schedule (re)starts the timer for path.
func (d *debouncer) schedule(ctx context.Context, path string) {
	if p, ok := d.pending[path]; ok {
		p.timer.Stop()
	}
	d.gen++
	f := firing{path: path, gen: d.gen}
	d.pending[path] = pending{
		gen: f.gen,
		timer: time.AfterFunc(d.delay, func() {
			select {
			case d.fire <- f:
			case <-ctx.Done():
			case <-d.done:
			}
		}),
	}
}

// fired runs fn if f belongs to the latest scheduling of its path.
func (d *debouncer) fired(f firing) {
	p, ok := d.pending[f.path]
	if !ok || p.gen != f.gen {
		return
	}
	delete(d.pending, f.path)
	d.fn(f.path)
}

func (d *debouncer) stop() {
	close(d.done)
	for _, p := range d.pending {
		p.timer.Stop()
	}
}
