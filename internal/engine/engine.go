package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/varalys/contentguard/internal/cache"
	"github.com/varalys/contentguard/internal/files"
	"github.com/varalys/contentguard/internal/logger"
	"github.com/varalys/contentguard/internal/rules"
	"github.com/varalys/contentguard/internal/scanner"
	"github.com/varalys/contentguard/internal/types"
)

// IgnoreFileDirective excludes a whole file when it appears anywhere in it.
const IgnoreFileDirective = "contentguard:ignore-file"

// Config controls target selection, performance and caching.
type Config struct {
	Root            string
	Paths           []string // explicit files or directories; empty means Root
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	Threads         int
	DefaultExcludes bool
	NoCache         bool
	DryRun          bool
	KeepContent     bool // retain scanned text on each Analysis for rendering
	Rules           *rules.RuleSet
	Progress        func()
	Logger          *logger.Logger
}

// Result contains analyses and basic scan statistics.
type Result struct {
	Analyses     []types.Analysis
	FilesScanned int
	CacheHits    int
	Duration     time.Duration
}

// ErrTooLarge is returned by ScanReader when input exceeds the byte limit.
var ErrTooLarge = errors.New("input exceeds max bytes")

// Scan runs a scan and returns only the analyses.
func Scan(cfg Config) ([]types.Analysis, error) {
	res, err := ScanWithStats(cfg)
	if err != nil {
		return nil, err
	}
	return res.Analyses, nil
}

// ScanWithStats runs a scan and returns analyses along with timing and counts.
func ScanWithStats(cfg Config) (Result, error) {
	return ScanContext(context.Background(), cfg)
}

// ScanContext is ScanWithStats with cancellation. Analyses are sorted by file
// name.
func ScanContext(ctx context.Context, cfg Config) (Result, error) {
	var result Result
	started := time.Now()

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("engine")
	scnr := scanner.New(cfg.Rules)
	fingerprint := scnr.Rules().Fingerprint()

	var db cache.DB
	if cfg.NoCache {
		db = cache.DB{Fingerprint: fingerprint, Entries: map[string]types.ScanResult{}}
	} else {
		var err error
		db, err = cache.Load(cfg.Root, fingerprint)
		if err != nil {
			log.Debug("cache unavailable, starting fresh", zap.Error(err))
		}
	}

	ign, err := loadIgnore(cfg.Root)
	if err != nil {
		log.Debug("no ignore file", zap.Error(err))
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	var (
		mu      sync.Mutex
		out     []types.Analysis
		updated = map[string]types.ScanResult{}
		wg      sync.WaitGroup
		jobs    = make(chan Target, determineBatchSize(threads))
		scanned int
		hits    int
	)

	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				a, ok, err := scanTarget(scnr, db, t, cfg)
				mu.Lock()
				if err != nil {
					log.Debug("skip unreadable file", zap.String("file", t.Rel), zap.Error(err))
				} else if ok {
					scanned++
					if a.Cached {
						hits++
					} else if !cfg.NoCache {
						updated[a.Hash] = a.ScanResult
					}
					out = append(out, a)
				}
				if cfg.Progress != nil {
					cfg.Progress()
				}
				mu.Unlock()
			}
		}()
	}

	walkErr := Walk(ctx, cfg, ign, func(t Target) {
		if cfg.DryRun {
			mu.Lock()
			scanned++
			if cfg.Progress != nil {
				cfg.Progress()
			}
			mu.Unlock()
			return
		}
		jobs <- t
	})
	close(jobs)
	wg.Wait()
	if walkErr != nil {
		return result, fmt.Errorf("walk %s: %w", cfg.Root, walkErr)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	result.Analyses = out
	result.FilesScanned = scanned
	result.CacheHits = hits
	result.Duration = time.Since(started)

	if !cfg.NoCache && !cfg.DryRun && len(updated) > 0 {
		for k, v := range updated {
			db.Entries[k] = v
		}
		if err := cache.Save(cfg.Root, db); err != nil {
			log.Warn("could not save cache", zap.Error(err))
		}
	}
	log.Debug("scan complete",
		zap.Int("files", scanned),
		zap.Int("cache_hits", hits),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func determineBatchSize(threads int) int {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads < 2 {
		threads = 2
	}
	if threads > 32 {
		threads = 32
	}
	return threads * 4
}

// scanTarget reads and scans one file. ok is false when the file is not
// scannable (non-image binary or carrying the ignore directive).
func scanTarget(scnr *scanner.Scanner, db cache.DB, t Target, cfg Config) (types.Analysis, bool, error) {
	data, err := readTarget(t)
	if err != nil {
		return types.Analysis{}, false, err
	}
	if bytes.Contains(data, []byte(IgnoreFileDirective)) {
		return types.Analysis{}, false, nil
	}
	a, ok := analyze(scnr, t.Rel, data, db.Entries)
	if ok && !cfg.KeepContent {
		a.Content = ""
	}
	return a, ok, nil
}

// analyze builds the Analysis for one artifact, consulting cached results
// when entries is non-nil. Results are keyed by the hash of the scanned text,
// which for images includes the file name.
func analyze(scnr *scanner.Scanner, name string, data []byte, entries map[string]types.ScanResult) (types.Analysis, bool) {
	text, fileType, ok := files.ScanText(name, data)
	if !ok {
		return types.Analysis{}, false
	}
	a := types.Analysis{
		FileName:  name,
		FileType:  fileType,
		Size:      int64(len(data)),
		Hash:      fastHash([]byte(text)),
		Timestamp: time.Now().UTC(),
		Content:   text,
	}
	if cached, hit := entries[a.Hash]; hit {
		a.ScanResult = cached
		a.Cached = true
		return a, true
	}
	a.ScanResult = scnr.Scan(text)
	return a, true
}

// ScanFile scans a single file outside of a tree walk. ok is false for
// content that is not scanned, including files carrying IgnoreFileDirective.
func ScanFile(path, name string, rs *rules.RuleSet, maxBytes int64) (types.Analysis, bool, error) {
	t := Target{Rel: name, Path: path}
	data, err := readTarget(t)
	if err != nil {
		return types.Analysis{}, false, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return types.Analysis{}, false, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	if bytes.Contains(data, []byte(IgnoreFileDirective)) {
		return types.Analysis{}, false, nil
	}
	a, ok := analyze(scanner.New(rs), name, data, nil)
	return a, ok, nil
}

// ScanReader scans content from r (typically stdin) under the given name.
// Input larger than maxBytes is rejected rather than truncated.
func ScanReader(name string, r io.Reader, rs *rules.RuleSet, maxBytes int64) (types.Analysis, error) {
	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("read %s: %w", name, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return types.Analysis{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	// stdin is always treated as text
	text := string(data)
	return types.Analysis{
		FileName:   name,
		FileType:   "text/plain",
		Size:       int64(len(data)),
		Hash:       fastHash(data),
		Timestamp:  time.Now().UTC(),
		Content:    text,
		ScanResult: scanner.New(rs).Scan(text),
	}, nil
}

func fastHash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}
