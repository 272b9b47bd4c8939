// Package watch scans files as they land in a directory, such as an upload
// inbox, and keeps running verdict statistics.
package watch

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

	"github.com/varalys/contentguard/internal/engine"
	"github.com/varalys/contentguard/internal/ignore"
	"github.com/varalys/contentguard/internal/logger"
	"github.com/varalys/contentguard/internal/rules"
	"github.com/varalys/contentguard/internal/stats"
	"github.com/varalys/contentguard/internal/types"
)

// DefaultDebounce is how long a file must stay quiet before it is scanned.
const DefaultDebounce = 300 * time.Millisecond

// Config controls a Watcher.
type Config struct {
	Dir        string
	Rules      *rules.RuleSet
	MaxBytes   int64
	Debounce   time.Duration
	Logger     *logger.Logger
	OnAnalysis func(types.Analysis) // called once per scanned file, never concurrently
}

// Watcher scans created or written files under Dir.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	ign     ignore.Matcher
	log     *logger.Logger
	agg     stats.Aggregator
	emitMu  sync.Mutex
	timerMu sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

// New creates a Watcher and registers Dir and its subdirectories, so events
// that happen after New returns are observed.
func New(cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ign, _ := ignore.Load(filepath.Join(cfg.Dir, ignore.FileName))
	w := &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		ign:     ign,
		log:     log.WithComponent("watch"),
		pending: map[string]*time.Timer{},
	}
	if err := w.addTree(cfg.Dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".git") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return err
		}
		w.log.Debug("watching directory", zap.String("dir", p))
		return nil
	})
}

// Run processes events until ctx is cancelled. Scans already scheduled when
// ctx ends are dropped; scans in progress are waited for.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.timerMu.Lock()
		w.closed = true
		for p, t := range w.pending {
			t.Stop()
			delete(w.pending, p)
		}
		w.timerMu.Unlock()
		w.wg.Wait()
		_ = w.fsw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) rel(p string) string {
	rel, err := filepath.Rel(w.cfg.Dir, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if event.Op&fsnotify.Create != 0 {
		if isDir, err := statDir(event.Name); err == nil && isDir {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("cannot watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}
	rel := w.rel(event.Name)
	if w.ign.Match(rel) || strings.HasPrefix(filepath.Base(rel), ".contentguard") {
		return
	}
	w.schedule(ctx, event.Name, rel)
}

func (w *Watcher) schedule(ctx context.Context, path, rel string) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.timerMu.Lock()
		delete(w.pending, path)
		if w.closed || ctx.Err() != nil {
			w.timerMu.Unlock()
			return
		}
		w.wg.Add(1)
		w.timerMu.Unlock()
		defer w.wg.Done()
		w.scan(path, rel)
	})
}

func (w *Watcher) scan(path, rel string) {
	a, ok, err := engine.ScanFile(path, rel, w.cfg.Rules, w.cfg.MaxBytes)
	if err != nil {
		w.log.Debug("skip file", zap.String("file", rel), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	w.agg.AddResult(a.ScanResult)
	w.log.Info("scanned",
		zap.String("file", rel),
		zap.String("status", string(a.Status)),
		zap.Int("score", a.Score))
	if w.cfg.OnAnalysis != nil {
		w.emitMu.Lock()
		w.cfg.OnAnalysis(a)
		w.emitMu.Unlock()
	}
}

// Summary returns verdict statistics for everything scanned so far.
func (w *Watcher) Summary() stats.Summary { return w.agg.Summary() }

func statDir(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
