// Package promcollector exports benchmark metrics to Prometheus.
package promcollector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/scalareval"
)

var _ scalareval.MetricsCollector = (*Collector)(nil)

// Collector implements scalareval.MetricsCollector with its own registry.
type Collector struct {
	registry *prometheus.Registry

	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	GeneratedSetsTotal prometheus.Counter
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	MatchingSets       *prometheus.GaugeVec
	ReportsTotal       *prometheus.CounterVec
}

// New creates and registers all collectors. Go runtime and process
// collectors are registered as well.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scalareval_generations_total",
				Help: "Total corpus generations by status.",
			},
			[]string{"status"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scalareval_generation_duration_seconds",
				Help:    "Corpus generation time in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		GeneratedSetsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scalareval_generated_sets_total",
				Help: "Total sets written to corpora.",
			},
		),
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scalareval_evaluations_total",
				Help: "Total evaluations by backend and status.",
			},
			[]string{"backend", "status"},
		),
		EvaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scalareval_evaluation_duration_seconds",
				Help:    "Measured scan time in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 12),
			},
			[]string{"backend", "threads", "preloaded"},
		),
		MatchingSets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scalareval_matching_sets",
				Help: "Matching sets found by the last evaluation.",
			},
			[]string{"backend"},
		),
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scalareval_reports_total",
				Help: "Total report files written by status.",
			},
			[]string{"status"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.GenerationsTotal,
		c.GenerationDuration,
		c.GeneratedSetsTotal,
		c.EvaluationsTotal,
		c.EvaluationDuration,
		c.MatchingSets,
		c.ReportsTotal,
	)

	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordGeneration implements scalareval.MetricsCollector.
func (c *Collector) RecordGeneration(sets, _ int, duration time.Duration, err error) {
	c.GenerationsTotal.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	c.GenerationDuration.Observe(duration.Seconds())
	c.GeneratedSetsTotal.Add(float64(sets))
}

// RecordEvaluation implements scalareval.MetricsCollector.
func (c *Collector) RecordEvaluation(backend string, threads int, preloaded bool, matches uint64, duration time.Duration, err error) {
	c.EvaluationsTotal.WithLabelValues(backend, status(err)).Inc()
	if err != nil {
		return
	}
	c.EvaluationDuration.WithLabelValues(backend, strconv.Itoa(threads), strconv.FormatBool(preloaded)).Observe(duration.Seconds())
	c.MatchingSets.WithLabelValues(backend).Set(float64(matches))
}

// RecordReport implements scalareval.MetricsCollector.
func (c *Collector) RecordReport(_ int, err error) {
	c.ReportsTotal.WithLabelValues(status(err)).Inc()
}

// Registry returns the registry holding the collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the Prometheus scrape HTTP handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves the handler on addr under /metrics and returns a
// shutdown func.
func (c *Collector) StartServer(addr string, logger *slog.Logger) (shutdown func(context.Context) error) {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>scalareval</h1><p><a href="/metrics">/metrics</a></p></body></html>`)
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
