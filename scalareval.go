package scalareval

import (
	"context"
	"runtime"
	"time"

	"github.com/hupe1980/scalareval/internal/corpus"
	"github.com/hupe1980/scalareval/internal/evaluator"
	"github.com/hupe1980/scalareval/internal/harness"
	"github.com/hupe1980/scalareval/internal/resource"
	"github.com/hupe1980/scalareval/scalarset"
)

type (
	// Spec describes a corpus to generate.
	Spec = corpus.Spec
	// Config describes a benchmark sweep.
	Config = harness.Config
	// EvalRequest describes a one-shot evaluation.
	EvalRequest = harness.EvalRequest
	// Result is the outcome of one evaluation.
	Result = evaluator.Result
	// Row is one measured grid point of a sweep.
	Row = harness.Row
)

// DefaultConfig returns the grid of the reference benchmark.
func DefaultConfig() *Config { return harness.DefaultConfig() }

// LoadConfig reads a YAML config file over the defaults and applies
// SCALAREVAL_* environment overrides.
func LoadConfig(path string) (*Config, error) { return harness.LoadConfig(path) }

// ThreadLadder returns the thread counts a sweep runs with.
func ThreadLadder(maxThreads int) []int { return harness.ThreadLadder(maxThreads) }

// CorpusFileName returns the canonical corpus file name.
func CorpusFileName(floats bool, setCount, setSize int) string {
	return corpus.FileName(kindOf(floats), setCount, setSize)
}

// Benchmark generates corpora, evaluates probes and runs sweeps.
type Benchmark struct {
	h       *harness.Harness
	logger  *Logger
	metrics MetricsCollector
}

// New creates a Benchmark.
func New(optFns ...Option) *Benchmark {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		resources: resource.Config{
			MaxBackgroundWorkers: int64(runtime.GOMAXPROCS(0)),
		},
	}
	for _, fn := range optFns {
		fn(&o)
	}

	b := &Benchmark{
		logger:  o.logger,
		metrics: o.metricsCollector,
	}
	b.h = harness.New(
		harness.WithController(resource.NewController(o.resources)),
		harness.WithMirror(o.mirror, o.publish),
		harness.WithObserver(observer{b}),
		harness.WithLogger(o.logger.Logger),
	)
	return b
}

// Generate writes a corpus of spec.SetCount sets of spec.SetSize distinct
// values from [spec.Min, spec.Max) to path.
func (b *Benchmark) Generate(ctx context.Context, path string, floats bool, spec Spec) error {
	if err := checkRange(spec.Min, spec.Max, spec.SetSize); err != nil {
		return err
	}
	return translateError(b.h.Generate(ctx, path, floats, spec), spec.Min, spec.Max, spec.SetSize)
}

// Evaluate counts the sets of the corpus at req.Path that share at least
// one value with a random probe of req.ProbeSize values.
func (b *Benchmark) Evaluate(ctx context.Context, req EvalRequest) (Result, error) {
	if err := checkRange(req.Min, req.Max, req.ProbeSize); err != nil {
		return Result{}, err
	}
	return b.h.Evaluate(ctx, req)
}

// Run executes a sweep and returns the paths of the written reports.
func (b *Benchmark) Run(ctx context.Context, cfg *Config) ([]string, error) {
	return b.h.Run(ctx, cfg)
}

// observer forwards harness events to the logger and metrics collector.
type observer struct {
	b *Benchmark
}

func (o observer) Generated(ctx context.Context, path string, spec corpus.Spec, d time.Duration, err error) {
	o.b.logger.LogGenerate(ctx, path, spec.SetCount, spec.SetSize, d, err)
	o.b.metrics.RecordGeneration(spec.SetCount, spec.SetSize, d, err)
}

func (o observer) Evaluated(ctx context.Context, r harness.Row, err error) {
	o.b.logger.LogEvaluate(ctx, r, err)
	o.b.metrics.RecordEvaluation(r.Result.Backend, r.Result.ThreadCount, r.Result.Preloaded, r.Result.MatchCount, r.Result.Duration, err)
}

func (o observer) Reported(ctx context.Context, path string, rows int, err error) {
	o.b.logger.LogReport(ctx, path, rows, err)
	o.b.metrics.RecordReport(rows, err)
}

func kindOf(floats bool) scalarset.Kind {
	if floats {
		return scalarset.Float32
	}
	return scalarset.Int32
}
