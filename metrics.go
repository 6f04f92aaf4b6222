package scalareval

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting benchmark metrics.
// Implement this interface to integrate with monitoring systems; package
// promcollector provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordGeneration is called after each corpus generation.
	RecordGeneration(sets, values int, duration time.Duration, err error)

	// RecordEvaluation is called after each evaluation. duration is the
	// measured scan time, matches the number of matching sets.
	RecordEvaluation(backend string, threads int, preloaded bool, matches uint64, duration time.Duration, err error)

	// RecordReport is called after each report file is written.
	RecordReport(rows int, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGeneration(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEvaluation(string, int, bool, uint64, time.Duration, error) {
}
func (NoopMetricsCollector) RecordReport(int, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	GenerateCount      atomic.Int64
	GenerateErrors     atomic.Int64
	GeneratedSets      atomic.Int64
	GenerateTotalNanos atomic.Int64
	EvaluateCount      atomic.Int64
	EvaluateErrors     atomic.Int64
	EvaluateMatches    atomic.Int64
	EvaluateTotalNanos atomic.Int64
	ReportCount        atomic.Int64
	ReportErrors       atomic.Int64
	ReportRows         atomic.Int64
}

// RecordGeneration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGeneration(sets, _ int, duration time.Duration, err error) {
	b.GenerateCount.Add(1)
	b.GenerateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GenerateErrors.Add(1)
		return
	}
	b.GeneratedSets.Add(int64(sets))
}

// RecordEvaluation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluation(_ string, _ int, _ bool, matches uint64, duration time.Duration, err error) {
	b.EvaluateCount.Add(1)
	if err != nil {
		b.EvaluateErrors.Add(1)
		return
	}
	b.EvaluateMatches.Add(int64(matches))
	b.EvaluateTotalNanos.Add(duration.Nanoseconds())
}

// RecordReport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReport(rows int, err error) {
	b.ReportCount.Add(1)
	if err != nil {
		b.ReportErrors.Add(1)
		return
	}
	b.ReportRows.Add(int64(rows))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GenerateCount:    b.GenerateCount.Load(),
		GenerateErrors:   b.GenerateErrors.Load(),
		GeneratedSets:    b.GeneratedSets.Load(),
		GenerateAvgNanos: avg(b.GenerateTotalNanos.Load(), b.GenerateCount.Load()),
		EvaluateCount:    b.EvaluateCount.Load(),
		EvaluateErrors:   b.EvaluateErrors.Load(),
		EvaluateMatches:  b.EvaluateMatches.Load(),
		EvaluateAvgNanos: avg(b.EvaluateTotalNanos.Load(), b.EvaluateCount.Load()-b.EvaluateErrors.Load()),
		ReportCount:      b.ReportCount.Load(),
		ReportErrors:     b.ReportErrors.Load(),
		ReportRows:       b.ReportRows.Load(),
	}
}

func avg(total, count int64) int64 {
	if count <= 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	GenerateCount    int64
	GenerateErrors   int64
	GeneratedSets    int64
	GenerateAvgNanos int64
	EvaluateCount    int64
	EvaluateErrors   int64
	EvaluateMatches  int64
	EvaluateAvgNanos int64
	ReportCount      int64
	ReportErrors     int64
	ReportRows       int64
}
