package corpus

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/scalareval/internal/fs"
	"github.com/hupe1980/scalareval/internal/resource"
)

type options struct {
	fs      fs.FileSystem
	rc      *resource.Controller
	logger  *slog.Logger
	workers int
}

// Option configures Write and Attach.
type Option func(*options)

// WithFileSystem sets the file system used for writing corpora.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithController sets the resource controller. Write draws generation
// workers and IO budget from it; Attach charges preloaded memory to it.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers sets the parallelism used for preloading. Zero means
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		fs:      fs.Default,
		logger:  slog.New(slog.DiscardHandler),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
