package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hupe1980/scalareval/internal/accel"
	"github.com/hupe1980/scalareval/internal/corpus"
	"github.com/hupe1980/scalareval/internal/evaluator"
	"github.com/hupe1980/scalareval/internal/fs"
	"github.com/hupe1980/scalareval/internal/resource"
	"github.com/hupe1980/scalareval/mirror"
	"github.com/hupe1980/scalareval/scalarset"
)

// Observer receives the outcome of every step of a harness.
type Observer interface {
	Generated(ctx context.Context, path string, spec corpus.Spec, d time.Duration, err error)
	Evaluated(ctx context.Context, row Row, err error)
	Reported(ctx context.Context, path string, rows int, err error)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) Generated(context.Context, string, corpus.Spec, time.Duration, error) {}
func (NopObserver) Evaluated(context.Context, Row, error)                               {}
func (NopObserver) Reported(context.Context, string, int, error)                         {}

// Harness generates corpora, evaluates probes against them and writes
// reports.
type Harness struct {
	fs      fs.FileSystem
	rc      *resource.Controller
	mirror  *mirror.Mirror
	publish bool
	obs     Observer
	logger  *slog.Logger
	open    func(name string) (accel.Device, error)
}

// Option configures a Harness.
type Option func(*Harness)

// WithFileSystem sets the file system used for corpora and reports.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(h *Harness) {
		if fsys != nil {
			h.fs = fsys
		}
	}
}

// WithController sets the resource controller shared by generation,
// preloading and mirror transfers.
func WithController(rc *resource.Controller) Option {
	return func(h *Harness) {
		h.rc = rc
	}
}

// WithMirror resolves missing corpora from m. With publish, corpora
// generated locally are uploaded to m.
func WithMirror(m *mirror.Mirror, publish bool) Option {
	return func(h *Harness) {
		h.mirror = m
		h.publish = publish
	}
}

// WithObserver sets the observer.
func WithObserver(obs Observer) Option {
	return func(h *Harness) {
		if obs != nil {
			h.obs = obs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithDeviceOpener replaces accel.Open for resolving device names.
func WithDeviceOpener(open func(name string) (accel.Device, error)) Option {
	return func(h *Harness) {
		if open != nil {
			h.open = open
		}
	}
}

// New creates a harness.
func New(optFns ...Option) *Harness {
	h := &Harness{
		fs:     fs.Default,
		obs:    NopObserver{},
		logger: slog.New(slog.DiscardHandler),
		open:   accel.Open,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(h)
		}
	}
	return h
}

func (h *Harness) corpusOptions() []corpus.Option {
	opts := []corpus.Option{
		corpus.WithFileSystem(h.fs),
		corpus.WithLogger(h.logger),
	}
	if h.rc != nil {
		opts = append(opts, corpus.WithController(h.rc))
	}
	return opts
}

// Generate writes a corpus described by spec to path.
func (h *Harness) Generate(ctx context.Context, path string, floats bool, spec corpus.Spec) error {
	start := time.Now()

	var err error
	if floats {
		err = corpus.Write[float32](ctx, path, spec, h.corpusOptions()...)
	} else {
		err = corpus.Write[int32](ctx, path, spec, h.corpusOptions()...)
	}

	h.obs.Generated(ctx, path, spec, time.Since(start), err)
	return err
}

// Resolve makes the corpus for (setCount, setSize) available under dir and
// returns its path. An existing file is reused. Otherwise the corpus is
// fetched from the mirror, or generated and, if enabled, published.
func (h *Harness) Resolve(ctx context.Context, dir string, kind scalarset.Kind, spec corpus.Spec) (string, error) {
	name := corpus.FileName(kind, spec.SetCount, spec.SetSize)
	path := filepath.Join(dir, name)
	if fs.Exists(h.fs, path) {
		return path, nil
	}

	if h.mirror != nil {
		err := h.mirror.Fetch(ctx, name, path)
		switch {
		case err == nil:
			return path, nil
		case errors.Is(err, mirror.ErrNotFound):
			h.logger.Debug("corpus not mirrored", "name", name)
		default:
			h.logger.Warn("mirror fetch failed", "name", name, "error", err)
		}
	}

	if err := h.Generate(ctx, path, kind == scalarset.Float32, spec); err != nil {
		return "", err
	}

	if h.mirror != nil && h.publish {
		if err := h.mirror.Publish(ctx, path, name); err != nil {
			h.logger.Warn("mirror publish failed", "name", name, "error", err)
		}
	}
	return path, nil
}

// EvalRequest describes a one-shot evaluation.
type EvalRequest struct {
	Path      string
	Floats    bool
	Min, Max  int32
	ProbeSize int
	Preload   bool
	// Threads caps the CPU pool. Zero uses runtime.GOMAXPROCS(0).
	Threads int
	// Device selects an accelerator device. Empty means CPU.
	Device string
	// Seed makes the probe reproducible. Zero is time-based.
	Seed          int64
	RecordMatches bool
}

// Evaluate attaches the corpus at req.Path, draws a random probe and counts
// the sets that share a value with it.
func (h *Harness) Evaluate(ctx context.Context, req EvalRequest) (evaluator.Result, error) {
	if req.ProbeSize < 0 || int64(req.ProbeSize) > corpus.RangeSize(req.Min, req.Max) {
		return evaluator.Result{}, fmt.Errorf("%w: probe size %d does not fit range [%d, %d)", ErrInvalidConfig, req.ProbeSize, req.Min, req.Max)
	}
	if req.Floats {
		return evaluate[float32](ctx, h, req)
	}
	return evaluate[int32](ctx, h, req)
}

func evaluate[T scalarset.Value](ctx context.Context, h *Harness, req EvalRequest) (evaluator.Result, error) {
	backend, closeFn, err := newBackend[T](h, req.Device)
	if err != nil {
		return evaluator.Result{}, err
	}
	defer closeFn()

	probe := newProbe[T](req.Seed, req.ProbeSize, req.Min, req.Max)
	row, err := evaluateOnce(ctx, h, backend, req.Path, req.Preload, req.Threads, probe, req.RecordMatches)

	h.obs.Evaluated(ctx, row, err)
	return row.Result, err
}

// Run executes the sweep described by cfg and returns the paths of the
// written reports. Corpora are resolved up front. Each (preload, threads)
// pair produces one report; cancellation is checked between grid points.
func (h *Harness) Run(ctx context.Context, cfg *Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := h.fs.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}
	if cfg.Floats {
		return run[float32](ctx, h, cfg)
	}
	return run[int32](ctx, h, cfg)
}

type gridKey struct {
	setSize  int
	setCount int
}

func run[T scalarset.Value](ctx context.Context, h *Harness, cfg *Config) ([]string, error) {
	backend, closeFn, err := newBackend[T](h, cfg.Device)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	kind := scalarset.KindOf[T]()
	paths := make(map[gridKey]string, len(cfg.SetSizes)*len(cfg.SetCounts))
	for _, size := range cfg.SetSizes {
		for _, count := range cfg.SetCounts {
			spec := corpus.Spec{
				SetCount: count,
				SetSize:  size,
				Min:      cfg.Min,
				Max:      cfg.Max,
				Seed:     corpusSeed(cfg.Seed, count, size),
			}
			path, err := h.Resolve(ctx, cfg.DataDir, kind, spec)
			if err != nil {
				return nil, err
			}
			paths[gridKey{size, count}] = path
		}
	}

	var reports []string
	for _, preload := range cfg.Preload {
		for _, threads := range ThreadLadder(cfg.threads()) {
			rows, err := sweep(ctx, h, cfg, backend, paths, preload, threads)
			if err != nil {
				return reports, err
			}

			name := ReportName(cfg.Report, threads, preload)
			if err := h.writeReport(ctx, name, rows); err != nil {
				return reports, err
			}
			reports = append(reports, name)
		}
	}
	return reports, nil
}

// sweep evaluates every grid point for one (preload, threads) pair.
func sweep[T scalarset.Value](ctx context.Context, h *Harness, cfg *Config, backend evaluator.Backend[T], paths map[gridKey]string, preload bool, threads int) ([]Row, error) {
	rows := make([]Row, 0, len(cfg.SetSizes)*len(cfg.SetCounts)*len(cfg.ProbeSizes))
	for _, size := range cfg.SetSizes {
		for _, count := range cfg.SetCounts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			path := paths[gridKey{size, count}]
			h.logger.Info("running test set", "path", path, "threads", threads, "preload", preload)

			got, err := measure(ctx, h, cfg, backend, path, preload, threads)
			if err != nil {
				return nil, err
			}
			for _, r := range got {
				r.SetSize = size
				r.SetCount = count
				rows = append(rows, r)
			}
		}
	}
	return rows, nil
}

// measure evaluates a probe of every size against one corpus. The corpus is
// mapped and attached afresh for each probe, so views never outlive the
// evaluation they were attached for.
func measure[T scalarset.Value](ctx context.Context, h *Harness, cfg *Config, backend evaluator.Backend[T], path string, preload bool, threads int) ([]Row, error) {
	rows := make([]Row, 0, len(cfg.ProbeSizes))
	for _, n := range cfg.ProbeSizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seed := cfg.Seed
		if seed != 0 {
			seed += int64(n)
		}
		probe := newProbe[T](seed, n, cfg.Min, cfg.Max)

		row, err := evaluateOnce(ctx, h, backend, path, preload, threads, probe, false)
		h.obs.Evaluated(ctx, row, err)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// evaluateOnce maps path, attaches its sets and evaluates probe against them.
// The mapping and any preloaded copies are released before it returns.
func evaluateOnce[T scalarset.Value](ctx context.Context, h *Harness, backend evaluator.Backend[T], path string, preload bool, threads int, probe *scalarset.Set[T], record bool) (Row, error) {
	row := Row{ProbeSize: probe.Size()}

	buf, err := corpus.Load[T](path)
	if err != nil {
		return row, err
	}
	defer buf.Close()

	sets, err := corpus.Attach(ctx, buf, preload, append(h.corpusOptions(), corpus.WithWorkers(threads))...)
	if err != nil {
		return row, err
	}
	defer sets.Release()

	row.SetSize = setSizeOf(sets)
	row.SetCount = sets.Len()
	row.Result, err = backend.Evaluate(ctx, sets, probe, evaluator.Params{
		MaxThreads:    threads,
		RecordMatches: record,
	})
	return row, err
}

func (h *Harness) writeReport(ctx context.Context, name string, rows []Row) (err error) {
	defer func() {
		h.obs.Reported(ctx, name, len(rows), err)
	}()

	f, err := fs.Create(h.fs, name)
	if err != nil {
		return fmt.Errorf("create report %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = h.fs.Remove(name)
		}
	}()

	if err := WriteReport(f, rows); err != nil {
		return fmt.Errorf("write report %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report %s: %w", name, err)
	}
	return nil
}

// newBackend resolves a device name. Empty and "cpu" select the CPU
// backend; the returned func releases the device.
func newBackend[T scalarset.Value](h *Harness, device string) (evaluator.Backend[T], func() error, error) {
	if device == "" || device == evaluator.CPUName {
		return evaluator.NewCPU[T](), func() error { return nil }, nil
	}

	dev, err := h.open(device)
	if err != nil {
		return nil, nil, err
	}
	return evaluator.NewDevice[T](dev), dev.Close, nil
}

func newProbe[T scalarset.Value](seed int64, n int, lo, hi int32) *scalarset.Set[T] {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return scalarset.New(corpus.Values[T](corpus.NewRand(seed), n, lo, hi))
}

// corpusSeed derives a distinct seed per corpus. Zero stays zero.
func corpusSeed(seed int64, setCount, setSize int) int64 {
	if seed == 0 {
		return 0
	}
	return seed ^ int64(setCount)<<20 ^ int64(setSize)
}

func setSizeOf[T scalarset.Value](sets *corpus.Sets[T]) int {
	if sets.Len() == 0 {
		return 0
	}
	return sets.Sets[0].Size()
}
