package scalareval

import (
	"github.com/hupe1980/scalareval/internal/resource"
	"github.com/hupe1980/scalareval/mirror"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	mirror           *mirror.Mirror
	publish          bool
	resources        resource.Config
}

// Option configures a Benchmark.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithMirror shares corpora through m. Missing corpora are fetched from
// it; with publish, corpora generated locally are uploaded to it.
func WithMirror(m *mirror.Mirror, publish bool) Option {
	return func(o *options) {
		o.mirror = m
		o.publish = publish
	}
}

// WithMemoryLimit caps the memory of preloaded sets. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resources.MemoryLimitBytes = bytes
	}
}

// WithIOLimit caps corpus and mirror throughput. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resources.IOLimitBytesPerSec = bytesPerSec
	}
}

// WithGenerateWorkers sets the number of sets generated in parallel.
func WithGenerateWorkers(n int) Option {
	return func(o *options) {
		o.resources.MaxBackgroundWorkers = int64(n)
	}
}
