package gallery

import (
	"context"
	"math/rand/v2"

	"go.uber.org/atomic"

	"github.com/nerrad567/photoframe-core/internal/picture"
)

// Logger defines the logging interface used by the gallery.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Lister is the part of Library the Service reads.
type Lister interface {
	List(ctx context.Context) ([]File, error)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Library Lister

	// Loader defaults to ImagingLoader.
	Loader Loader

	// Perm returns a permutation of [0, n). Defaults to rand.Perm.
	Perm func(n int) []int

	Logger Logger
}

// Service serves the library as a shuffled sequence of pictures, one per
// request. Every file is shown once before the order is reshuffled.
type Service struct {
	library  Lister
	loader   Loader
	perm     func(n int) []int
	logger   Logger
	requests chan struct{}
	seq      atomic.Uint64
}

// NewService creates a picture service over cfg.Library.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Library == nil {
		return nil, ErrNoLibrary
	}

	s := &Service{
		library:  cfg.Library,
		loader:   cfg.Loader,
		perm:     cfg.Perm,
		logger:   cfg.Logger,
		requests: make(chan struct{}, 1),
	}
	if s.loader == nil {
		s.loader = ImagingLoader{}
	}
	if s.perm == nil {
		s.perm = rand.Perm
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	return s, nil
}

// AdvanceToNext requests the next picture. Requests made while one is
// already pending are merged into it; a request made before any stream
// exists is kept for the first one.
func (s *Service) AdvanceToNext() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

// Images lists the library and returns a channel yielding one picture per
// request, sized to width x height. The library is listed again after every
// full pass. When the library cannot be read the
// channel yields a single StorageFailure and closes. An empty library
// closes it straight away. Otherwise it stays open until ctx is done.
func (s *Service) Images(ctx context.Context, width, height int) <-chan picture.Result {
	out := make(chan picture.Result)
	go s.stream(ctx, width, height, out)
	return out
}

func (s *Service) stream(ctx context.Context, width, height int, out chan<- picture.Result) {
	defer close(out)

	files, err := s.library.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("listing library failed", "error", err)
		select {
		case out <- picture.StorageFailure{Reason: err.Error()}:
		case <-ctx.Done():
		}
		return
	}
	if len(files) == 0 {
		s.logger.Warn("library is empty, no pictures to show")
		return
	}

	s.logger.Info("picture stream opened", "files", len(files), "width", width, "height", height)

	order := s.perm(len(files))
	next := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.requests:
		}
		if ctx.Err() != nil {
			// Hand the request over to whichever stream replaced this one.
			s.AdvanceToNext()
			return
		}

		if next == len(order) {
			files = s.relist(ctx, files)
			order = s.perm(len(files))
			next = 0
			s.logger.Debug("library exhausted, reshuffled", "files", len(files))
		}

		r := s.load(files[order[next]], width, height)
		next++

		select {
		case out <- r:
		case <-ctx.Done():
			return
		}
	}
}

// relist reads the library again once a pass is exhausted so rescans are
// picked up. The previous list is kept when the read fails or comes back
// empty.
func (s *Service) relist(ctx context.Context, current []File) []File {
	fresh, err := s.library.List(ctx)
	switch {
	case err != nil:
		if ctx.Err() == nil {
			s.logger.Warn("relisting library failed, keeping previous pass", "error", err)
		}
		return current
	case len(fresh) == 0:
		return current
	default:
		return fresh
	}
}

func (s *Service) load(f File, width, height int) picture.Result {
	img, err := s.loader.Load(f.Path, width, height)
	if err != nil {
		s.logger.Warn("loading picture failed", "path", f.Path, "error", err)
		return picture.BitmapOperationFailure{Path: f.Path}
	}
	return picture.Success{
		Image:      img,
		FolderName: f.FolderName,
		Path:       f.Path,
		Sequence:   s.seq.Add(1),
	}
}
