// Package harness runs the membership benchmark.
//
// A sweep resolves one corpus per (set size, set count) grid point, reusing
// files in the data directory, fetching them from a mirror, or generating
// them. It then evaluates probes of every size for each combination of
// preload mode and thread count on the thread ladder, and writes one
// Markdown report per combination:
//
//	h := harness.New(harness.WithLogger(logger))
//	reports, err := h.Run(ctx, cfg)
//
// Generate and Evaluate are the one-shot operations behind the CLI's new and
// eval commands.
package harness
