package harness

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scalareval/blobstore"
	"github.com/hupe1980/scalareval/internal/accel"
	"github.com/hupe1980/scalareval/internal/compress"
	"github.com/hupe1980/scalareval/internal/corpus"
	"github.com/hupe1980/scalareval/internal/evaluator"
	"github.com/hupe1980/scalareval/internal/resource"
	"github.com/hupe1980/scalareval/mirror"
	"github.com/hupe1980/scalareval/scalarset"
)

func TestThreadLadder(t *testing.T) {
	assert.Equal(t, []int{1, 2, 4, 6}, ThreadLadder(6))
	assert.Equal(t, []int{1, 2, 4, 8}, ThreadLadder(8))
	assert.Equal(t, []int{1}, ThreadLadder(1))
	assert.Equal(t, []int{1}, ThreadLadder(0))
	assert.Equal(t, []int{1, 2, 3}, ThreadLadder(3))
}

func TestReportName(t *testing.T) {
	assert.Equal(t, "out_4-threads_no_preload.md", ReportName("out", 4, false))
	assert.Equal(t, "out_1-threads_with_preload.md", ReportName("out", 1, true))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "    0.000000 s", FormatDuration(0))
	assert.Equal(t, "    1.000250 s", FormatDuration(time.Second+250*time.Microsecond+999))
	assert.Equal(t, "  123.456789 s", FormatDuration(123456789*time.Microsecond))
}

func TestWriteReport(t *testing.T) {
	rows := []Row{
		{SetSize: 10, SetCount: 10, ProbeSize: 10, Result: evaluator.Result{MatchCount: 3, Duration: 1250 * time.Microsecond, ThreadCount: 2}},
		{SetSize: 10, SetCount: 100, ProbeSize: 10, Result: evaluator.Result{MatchCount: 7, Duration: 2*time.Second + 5*time.Microsecond, ThreadCount: 2}},
		{SetSize: 100, SetCount: 10, ProbeSize: 10, Result: evaluator.Result{MatchCount: 1, ThreadCount: 2}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, rows))

	want := "\n" +
		"Data read directly from file for evalution.\n" +
		"\n" +
		"Number of threads: 2\n" +
		"Number of values in a set: 10\n" +
		"\n" +
		"|Sets          |Test set size |Matching sets |Duration      |\n" +
		"|-------------:|-------------:|-------------:|-------------:|\n" +
		"|            10|            10|             3|    0.001250 s|\n" +
		"|           100|            10|             7|    2.000005 s|\n" +
		"\n" +
		"Data read directly from file for evalution.\n" +
		"\n" +
		"Number of threads: 2\n" +
		"Number of values in a set: 100\n" +
		"\n" +
		"|Sets          |Test set size |Matching sets |Duration      |\n" +
		"|-------------:|-------------:|-------------:|-------------:|\n" +
		"|            10|            10|             1|    0.000000 s|\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReport_Preloaded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, []Row{{SetSize: 1, Result: evaluator.Result{Preloaded: true, ThreadCount: 1}}}))
	assert.True(t, strings.HasPrefix(buf.String(), "\nData preloaded into memory for evaluation.\n\n"))
}

func TestWriteReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
report: bench
min: -50
max: 50
floats: true
setSizes: [5, 10]
mirror:
  url: mem://
  codec: lz4
`), 0o644))

	t.Setenv("SCALAREVAL_MAX_THREADS", "3")
	t.Setenv("SCALAREVAL_PROBE_SIZES", "1, 2,3")
	t.Setenv("SCALAREVAL_MIN", "not-a-number")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "bench", cfg.Report)
	assert.Equal(t, int32(-50), cfg.Min)
	assert.Equal(t, int32(50), cfg.Max)
	assert.True(t, cfg.Floats)
	assert.Equal(t, []int{5, 10}, cfg.SetSizes)
	assert.Equal(t, []int{10, 100, 1000, 10000, 100000}, cfg.SetCounts)
	assert.Equal(t, []int{1, 2, 3}, cfg.ProbeSizes)
	assert.Equal(t, 3, cfg.MaxThreads)
	assert.Equal(t, "mem://", cfg.Mirror.URL)
	assert.Equal(t, "lz4", cfg.Mirror.Codec)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("setSizes: {"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := map[string]func(c *Config){
		"empty report":     func(c *Config) { c.Report = "" },
		"negative threads": func(c *Config) { c.MaxThreads = -1 },
		"empty grid":       func(c *Config) { c.ProbeSizes = nil },
		"probe too large":  func(c *Config) { c.Max = 100 },
		"negative count":   func(c *Config) { c.SetCounts = []int{-1} },
		"empty range":      func(c *Config) { c.Min, c.Max = 5, 5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

type recorder struct {
	mu        sync.Mutex
	generated []string
	rows      []Row
	reports   []string
}

func (r *recorder) Generated(_ context.Context, path string, _ corpus.Spec, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.generated = append(r.generated, filepath.Base(path))
	}
}

func (r *recorder) Evaluated(_ context.Context, row Row, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.rows = append(r.rows, row)
	}
}

func (r *recorder) Reported(_ context.Context, path string, _ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.reports = append(r.reports, filepath.Base(path))
	}
}

func smallConfig(t *testing.T) *Config {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Report = filepath.Join(dir, "report")
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.Min, cfg.Max = 0, 50
	cfg.SetSizes = []int{5, 10}
	cfg.SetCounts = []int{3, 7}
	cfg.ProbeSizes = []int{4, 8}
	cfg.MaxThreads = 2
	cfg.Seed = 42
	return cfg
}

func TestRun(t *testing.T) {
	cfg := smallConfig(t)
	rec := &recorder{}
	h := New(WithObserver(rec))

	reports, err := h.Run(t.Context(), cfg)
	require.NoError(t, err)

	dir := filepath.Dir(cfg.Report)
	assert.Equal(t, []string{
		filepath.Join(dir, "report_1-threads_no_preload.md"),
		filepath.Join(dir, "report_2-threads_no_preload.md"),
		filepath.Join(dir, "report_1-threads_with_preload.md"),
		filepath.Join(dir, "report_2-threads_with_preload.md"),
	}, reports)
	assert.Equal(t, []string{
		"report_1-threads_no_preload.md",
		"report_2-threads_no_preload.md",
		"report_1-threads_with_preload.md",
		"report_2-threads_with_preload.md",
	}, rec.reports)

	assert.ElementsMatch(t, []string{
		"i32_3_sets_with_5_values.bin",
		"i32_7_sets_with_5_values.bin",
		"i32_3_sets_with_10_values.bin",
		"i32_7_sets_with_10_values.bin",
	}, rec.generated)

	// 2 preload modes x 2 thread counts x 8 grid points.
	require.Len(t, rec.rows, 32)
	type key struct{ size, count, probe int }
	counts := map[key]uint64{}
	for _, r := range rec.rows {
		assert.LessOrEqual(t, r.Result.MatchCount, uint64(r.SetCount))
		assert.Equal(t, evaluator.CPUName, r.Result.Backend)

		k := key{r.SetSize, r.SetCount, r.ProbeSize}
		if c, ok := counts[k]; ok {
			assert.Equal(t, c, r.Result.MatchCount, "grid point %+v", k)
		} else {
			counts[k] = r.Result.MatchCount
		}
	}
	assert.Len(t, counts, 8)

	data, err := os.ReadFile(reports[3])
	require.NoError(t, err)
	text := string(data)
	assert.Equal(t, 2, strings.Count(text, "Data preloaded into memory for evaluation."))
	assert.Equal(t, 2, strings.Count(text, "Number of threads: 2\n"))
	assert.Contains(t, text, "Number of values in a set: 5\n")
	assert.Contains(t, text, "Number of values in a set: 10\n")
	assert.Equal(t, 8, strings.Count(text, " s|\n"))

	// A second run reuses the corpora.
	rec2 := &recorder{}
	_, err = New(WithObserver(rec2)).Run(t.Context(), cfg)
	require.NoError(t, err)
	assert.Empty(t, rec2.generated)
}

func TestRun_Floats(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Floats = true
	cfg.Preload = []bool{true}
	cfg.MaxThreads = 1
	cfg.Device = accel.EmulatorName

	rec := &recorder{}
	reports, err := New(WithObserver(rec)).Run(t.Context(), cfg)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.Report), "report_1-threads_with_preload.md"), reports[0])

	require.Len(t, rec.rows, 8)
	for _, r := range rec.rows {
		assert.Equal(t, accel.EmulatorName, r.Result.Backend)
	}
	assert.FileExists(t, filepath.Join(cfg.DataDir, "f32_7_sets_with_10_values.bin"))
}

func TestRun_DeviceThreadLadder(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Floats = true
	cfg.Preload = []bool{false}
	cfg.MaxThreads = 3
	cfg.Device = accel.EmulatorName

	reports, err := New().Run(t.Context(), cfg)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	for i, threads := range []int{1, 2, 3} {
		assert.Equal(t, ReportName(cfg.Report, threads, false), reports[i])

		data, err := os.ReadFile(reports[i])
		require.NoError(t, err)
		header := "Number of threads: " + strconv.Itoa(threads) + "\n"
		assert.Equal(t, len(cfg.SetSizes), strings.Count(string(data), header), reports[i])
		assert.Equal(t, len(cfg.SetSizes), strings.Count(string(data), "Number of threads: "), reports[i])
	}
}

func TestRun_AttachesPerEvaluation(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Preload = []bool{true}
	cfg.MaxThreads = 1

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
	rec := &recorder{}

	_, err := New(WithLogger(logger), WithController(rc), WithObserver(rec)).Run(t.Context(), cfg)
	require.NoError(t, err)

	require.Len(t, rec.rows, 8)
	assert.Equal(t, len(rec.rows), strings.Count(logs.String(), `msg="preloaded corpus"`))
	assert.Zero(t, rc.MemoryUsage())
}

func TestRun_Invalid(t *testing.T) {
	cfg := smallConfig(t)
	cfg.ProbeSizes = []int{51}
	_, err := New().Run(t.Context(), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRun_DisabledDevice(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Floats = true
	cfg.Device = accel.OpenCLName
	_, err := New().Run(t.Context(), cfg)
	assert.ErrorIs(t, err, accel.ErrBackendDisabled)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := New().Run(ctx, smallConfig(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_Mirror(t *testing.T) {
	store := blobstore.NewMemoryStore()
	m := mirror.New(store, mirror.WithCodec(compress.ZSTD))
	spec := corpus.Spec{SetCount: 12, SetSize: 6, Min: 0, Max: 100, Seed: 9}
	name := corpus.FileName(scalarset.Int32, 12, 6)

	rec := &recorder{}
	first := New(WithMirror(m, true), WithObserver(rec))
	path, err := first.Resolve(t.Context(), t.TempDir(), scalarset.Int32, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, rec.generated)

	has, err := m.Has(t.Context(), name)
	require.NoError(t, err)
	assert.True(t, has)

	rec2 := &recorder{}
	second := New(WithMirror(m, false), WithObserver(rec2))
	fetched, err := second.Resolve(t.Context(), t.TempDir(), scalarset.Int32, spec)
	require.NoError(t, err)
	assert.Empty(t, rec2.generated)

	want, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := os.ReadFile(fetched)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEvaluate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, corpus.FileName(scalarset.Float32, 40, 16))
	h := New()
	require.NoError(t, h.Generate(t.Context(), path, true, corpus.Spec{SetCount: 40, SetSize: 16, Min: 0, Max: 200, Seed: 3}))

	req := EvalRequest{Path: path, Floats: true, Min: 0, Max: 200, ProbeSize: 30, Threads: 2, Seed: 11, RecordMatches: true}
	cpu, err := h.Evaluate(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, cpu.ThreadCount)
	assert.Equal(t, cpu.MatchCount, cpu.Matches.GetCardinality())

	req.Device = accel.EmulatorName
	req.Preload = true
	dev, err := h.Evaluate(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, cpu.MatchCount, dev.MatchCount)
	assert.True(t, dev.Preloaded)
	assert.True(t, cpu.Matches.Equals(dev.Matches))
}

func TestEvaluate_Errors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, corpus.FileName(scalarset.Int32, 5, 5))
	h := New()
	require.NoError(t, h.Generate(t.Context(), path, false, corpus.Spec{SetCount: 5, SetSize: 5, Min: 0, Max: 20, Seed: 1}))

	_, err := h.Evaluate(t.Context(), EvalRequest{Path: path, Min: 0, Max: 20, ProbeSize: 5, Device: accel.EmulatorName})
	assert.ErrorIs(t, err, evaluator.ErrNotImplemented)

	_, err = h.Evaluate(t.Context(), EvalRequest{Path: path, Min: 0, Max: 20, ProbeSize: 21})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = h.Evaluate(t.Context(), EvalRequest{Path: filepath.Join(dir, "missing.bin"), Min: 0, Max: 20, ProbeSize: 5})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = h.Evaluate(t.Context(), EvalRequest{Path: path, Min: 0, Max: 20, ProbeSize: 5, Device: "nope"})
	assert.ErrorIs(t, err, accel.ErrUnknownDevice)
}
