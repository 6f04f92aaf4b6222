// Package resource bounds the work a benchmark run may put on the machine.
//
// A Controller governs three budgets:
//
//   - Memory: bytes that preloading may copy out of the mapped corpus
//     (non-blocking, fail-fast)
//   - Background workers: concurrent value-generation jobs while writing a
//     corpus
//   - IO: a token bucket shared by corpus writes and mirror transfers
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:     4 << 30,
//	    MaxBackgroundWorkers: int64(runtime.GOMAXPROCS(0)),
//	    IOLimitBytesPerSec:   200 << 20,
//	})
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// All methods treat a nil Controller as "no limits".
package resource
