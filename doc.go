// Package scalareval benchmarks membership queries against large collections
// of read-only scalar sets.
//
// A corpus is a file of serialized sets (see package scalarset). Evaluating a
// probe counts the sets sharing at least one value with it; the scan runs on
// a bounded CPU worker pool or is dispatched to an accelerator device.
//
// # Quick Start
//
//	ctx := context.Background()
//	b := scalareval.New(scalareval.WithLogger(scalareval.NewTextLogger(slog.LevelInfo)))
//
//	// Generate 1000 sets of 100 distinct values from [0, 1000000).
//	_ = b.Generate(ctx, "i32.bin", false, scalareval.Spec{SetCount: 1000, SetSize: 100, Max: 1000000})
//
//	// Evaluate a random probe of 50 values.
//	res, _ := b.Evaluate(ctx, scalareval.EvalRequest{Path: "i32.bin", Max: 1000000, ProbeSize: 50})
//	fmt.Println(res.MatchCount, res.Duration)
//
// # Sweeps
//
// Run executes the full grid of set sizes, set counts and probe sizes for
// each preload mode and every thread count on the ladder 1, 2, 4, ... up to
// Config.MaxThreads, writing one Markdown report per combination:
//
//	cfg, _ := scalareval.LoadConfig("bench.yaml")
//	reports, _ := b.Run(ctx, cfg)
//
// Corpora are reused from Config.DataDir. With WithMirror they are shared
// between machines through a blob store (local directory, S3 or MinIO).
//
// # Devices
//
// EvalRequest.Device and Config.Device select an accelerator. The
// "emulator" device is always available; "opencl" returns
// ErrBackendDisabled. Devices evaluate float corpora only.
package scalareval
