package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/scalareval"
	"github.com/hupe1980/scalareval/internal/accel"
	"github.com/hupe1980/scalareval/internal/compress"
	"github.com/hupe1980/scalareval/internal/resource"
	"github.com/hupe1980/scalareval/mirror"
	"github.com/hupe1980/scalareval/promcollector"
)

const shutdownTimeout = 5 * time.Second

// globalOptions override the config file and SCALAREVAL_* environment.
type globalOptions struct {
	Config      string `long:"config" description:"YAML config file"`
	LogLevel    string `long:"log-level" description:"Log level (debug, info, warn, error)"`
	LogFormat   string `long:"log-format" choice:"text" choice:"json" description:"Log format"`
	DataDir     string `long:"data-dir" description:"Directory for generated corpora"`
	Mirror      string `long:"mirror" description:"Corpus mirror URL (file://, s3://, minio://, mem://)"`
	MirrorCodec string `long:"mirror-codec" choice:"none" choice:"lz4" choice:"zstd" description:"Mirror compression"`
	Publish     bool   `long:"publish" description:"Upload generated corpora to the mirror"`
	MetricsAddr string `long:"metrics-addr" description:"Serve Prometheus metrics on this address"`
	MemoryLimit int64  `long:"memory-limit" description:"Memory limit for preloaded sets in bytes"`
	IOLimit     int64  `long:"io-limit" description:"Corpus IO limit in bytes per second"`
	Seed        int64  `long:"seed" description:"Seed for corpora and probes (0 is time-based)"`
}

type app struct {
	ctx    context.Context
	stdout io.Writer
	opts   globalOptions

	cfg     *scalareval.Config
	logger  *scalareval.Logger
	cleanup []func()
}

// setup loads the config, applies global flags and builds a Benchmark.
func (a *app) setup() (*scalareval.Benchmark, error) {
	cfg, err := scalareval.LoadConfig(a.opts.Config)
	if err != nil {
		return nil, err
	}
	a.applyFlags(cfg)
	a.cfg = cfg

	logger, err := scalareval.NewLoggerFromConfig(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	a.logger = logger

	benchOpts := []scalareval.Option{
		scalareval.WithLogger(logger),
		scalareval.WithMemoryLimit(cfg.Resources.MemoryLimitBytes),
		scalareval.WithIOLimit(cfg.Resources.IOLimitBytesPerSec),
		scalareval.WithGenerateWorkers(cfg.Resources.GenerateWorkers),
	}

	if cfg.Metrics.Addr != "" {
		collector := promcollector.New()
		shutdown := collector.StartServer(cfg.Metrics.Addr, logger.Logger)
		a.cleanup = append(a.cleanup, func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = shutdown(ctx)
		})
		benchOpts = append(benchOpts, scalareval.WithMetricsCollector(collector))
	}

	if cfg.Mirror.URL != "" {
		codec, err := compress.ParseCodec(cfg.Mirror.Codec)
		if err != nil {
			return nil, err
		}
		m, err := mirror.Open(a.ctx, cfg.Mirror.URL,
			mirror.WithCodec(codec),
			mirror.WithLogger(logger.Logger),
			mirror.WithController(resource.NewController(resource.Config{IOLimitBytesPerSec: cfg.Resources.IOLimitBytesPerSec})),
		)
		if err != nil {
			return nil, err
		}
		benchOpts = append(benchOpts, scalareval.WithMirror(m, cfg.Mirror.Publish))
	}

	return scalareval.New(benchOpts...), nil
}

func (a *app) applyFlags(cfg *scalareval.Config) {
	o := a.opts
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Mirror != "" {
		cfg.Mirror.URL = o.Mirror
	}
	if o.MirrorCodec != "" {
		cfg.Mirror.Codec = o.MirrorCodec
	}
	if o.Publish {
		cfg.Mirror.Publish = true
	}
	if o.MetricsAddr != "" {
		cfg.Metrics.Addr = o.MetricsAddr
	}
	if o.MemoryLimit != 0 {
		cfg.Resources.MemoryLimitBytes = o.MemoryLimit
	}
	if o.IOLimit != 0 {
		cfg.Resources.IOLimitBytesPerSec = o.IOLimit
	}
	if o.Seed != 0 {
		cfg.Seed = o.Seed
	}
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// DeviceFlags select the evaluation backend.
type DeviceFlags struct {
	GPU    bool   `long:"gpu" description:"Evaluate on the default accelerator device"`
	Device string `long:"device" description:"Evaluate on the named device (cpu, emulator, opencl)"`
}

func (d DeviceFlags) device(cfg *scalareval.Config) string {
	switch {
	case d.Device != "":
		return d.Device
	case d.GPU:
		return accel.DefaultDevice
	default:
		return cfg.Device
	}
}

type newCommand struct {
	app *app

	Floats bool `long:"floats" description:"Generate float32 values"`
	Args   struct {
		File   string `positional-arg-name:"file"`
		Min    int32  `positional-arg-name:"minvalue"`
		Max    int32  `positional-arg-name:"maxvalue"`
		Values int    `positional-arg-name:"values"`
		Sets   int    `positional-arg-name:"sets"`
	} `positional-args:"yes" required:"yes"`
}

func (c *newCommand) Execute(_ []string) error {
	b, err := c.app.setup()
	if err != nil {
		return err
	}
	defer c.app.close()

	return b.Generate(c.app.ctx, c.Args.File, c.Floats, scalareval.Spec{
		SetCount: c.Args.Sets,
		SetSize:  c.Args.Values,
		Min:      c.Args.Min,
		Max:      c.Args.Max,
		Seed:     c.app.cfg.Seed,
	})
}

type evalCommand struct {
	app *app
	DeviceFlags

	Floats  bool `long:"floats" description:"Evaluate a float32 corpus"`
	Threads int  `long:"threads" description:"Worker threads (0 uses all cores)"`
	Preload bool `long:"preload" description:"Copy the sets into memory before evaluating"`
	Args    struct {
		File   string `positional-arg-name:"file" required:"yes"`
		Min    int32  `positional-arg-name:"minvalue" required:"yes"`
		Max    int32  `positional-arg-name:"maxvalue" required:"yes"`
		Values int    `positional-arg-name:"values" required:"yes"`
		Sets   int    `positional-arg-name:"sets"`
	} `positional-args:"yes"`
}

func (c *evalCommand) Execute(_ []string) error {
	b, err := c.app.setup()
	if err != nil {
		return err
	}
	defer c.app.close()

	res, err := b.Evaluate(c.app.ctx, scalareval.EvalRequest{
		Path:      c.Args.File,
		Floats:    c.Floats,
		Min:       c.Args.Min,
		Max:       c.Args.Max,
		ProbeSize: c.Args.Values,
		Preload:   c.Preload,
		Threads:   c.Threads,
		Device:    c.device(c.app.cfg),
		Seed:      c.app.cfg.Seed,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.app.stdout, "Found %d matches in %s s\n", res.MatchCount, seconds(res.Duration))
	return nil
}

type testCommand struct {
	app *app
	DeviceFlags

	Floats  bool `long:"floats" description:"Benchmark float32 corpora"`
	Threads int  `long:"threads" description:"Top of the thread ladder (0 uses all cores)"`
	Args    struct {
		Report string `positional-arg-name:"report" required:"yes"`
		Min    int32  `positional-arg-name:"minvalue" required:"yes"`
		Max    int32  `positional-arg-name:"maxvalue" required:"yes"`
		Values int    `positional-arg-name:"values"`
		Sets   int    `positional-arg-name:"sets"`
	} `positional-args:"yes"`
}

func (c *testCommand) Execute(_ []string) error {
	b, err := c.app.setup()
	if err != nil {
		return err
	}
	defer c.app.close()

	cfg := c.app.cfg
	cfg.Report = c.Args.Report
	cfg.Min = c.Args.Min
	cfg.Max = c.Args.Max
	cfg.Floats = c.Floats || cfg.Floats
	cfg.Device = c.device(cfg)
	if c.Threads > 0 {
		cfg.MaxThreads = c.Threads
	}
	if c.Args.Values > 0 {
		cfg.SetSizes = []int{c.Args.Values}
	}
	if c.Args.Sets > 0 {
		cfg.SetCounts = []int{c.Args.Sets}
	}

	reports, err := b.Run(c.app.ctx, cfg)
	for _, r := range reports {
		fmt.Fprintf(c.app.stdout, "Wrote %s\n", r)
	}
	return err
}

type devicesCommand struct {
	app *app
}

func (c *devicesCommand) Execute(_ []string) error {
	for _, name := range accel.Devices() {
		fmt.Fprintln(c.app.stdout, name)
	}
	return nil
}
