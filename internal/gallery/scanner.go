package gallery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

const defaultScanConcurrency = 4

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	// Roots are the folders to index, walked recursively.
	Roots []string

	// Extensions are the file extensions to index, matched case-insensitively.
	// Each includes the leading dot.
	Extensions []string

	// Concurrency bounds how many roots are walked at once.
	Concurrency int

	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// ScanResult summarises one completed scan.
type ScanResult struct {
	Indexed  int
	Pruned   int64
	Duration time.Duration
}

// Scanner fills a Library from folders on disk.
type Scanner struct {
	library     Library
	roots       []string
	extensions  map[string]struct{}
	concurrency int
	clock       clockwork.Clock
	logger      Logger
}

// NewScanner creates a scanner writing to library.
func NewScanner(library Library, cfg ScannerConfig) (*Scanner, error) {
	if library == nil {
		return nil, ErrNoLibrary
	}
	if len(cfg.Roots) == 0 {
		return nil, ErrNoRoots
	}

	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultScanConcurrency
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Scanner{
		library:     library,
		roots:       cfg.Roots,
		extensions:  exts,
		concurrency: concurrency,
		clock:       clock,
		logger:      noopLogger{},
	}, nil
}

// SetLogger sets the logger for the scanner.
func (s *Scanner) SetLogger(logger Logger) {
	s.logger = logger
}

// Scan walks every root, indexes matching files and prunes entries that no
// longer exist. When any root fails nothing is pruned, so an unmounted
// folder does not empty the library.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	started := s.clock.Now()
	var indexed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, root := range s.roots {
		g.Go(func() error {
			files, err := s.walk(gctx, root, started)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", root, err)
			}
			if err := s.library.Upsert(gctx, files...); err != nil {
				return fmt.Errorf("indexing %s: %w", root, err)
			}
			indexed.Add(int64(len(files)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScanResult{}, err
	}

	pruned, err := s.library.Prune(ctx, started)
	if err != nil {
		return ScanResult{}, err
	}

	result := ScanResult{
		Indexed:  int(indexed.Load()),
		Pruned:   pruned,
		Duration: s.clock.Since(started),
	}
	s.logger.Info("library scan complete",
		"indexed", result.Indexed,
		"pruned", result.Pruned,
		"duration", result.Duration,
	)
	return result, nil
}

// Run scans immediately and then every interval until ctx is cancelled.
// Scan failures are logged and retried on the next interval.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	s.scanAndLog(ctx)
	s.Watch(ctx, interval)
}

// Watch rescans every interval until ctx is cancelled, without an initial
// scan. A non-positive interval returns at once.
func (s *Scanner) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.scanAndLog(ctx)
		}
	}
}

func (s *Scanner) scanAndLog(ctx context.Context) {
	if _, err := s.Scan(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("library scan failed", "error", err)
	}
}

func (s *Scanner) walk(ctx context.Context, root string, indexedAt time.Time) ([]File, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !s.matches(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			s.logger.Warn("skipping file", "path", path, "error", err)
			return nil
		}

		files = append(files, File{
			Path:       path,
			FolderName: FolderOf(path),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
			IndexedAt:  indexedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Scanner) matches(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	_, ok := s.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
