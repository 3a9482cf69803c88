package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "genflow"

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	runsTotal         *prometheus.CounterVec
	runsRejected      *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	generationCalls   *prometheus.CounterVec
	generationErrors  *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	graphNodes        prometheus.Gauge
	graphEdges        prometheus.Gauge
	workerPoolIdle    prometheus.Gauge
	workerPoolBusy    prometheus.Gauge
	workerPoolStopped prometheus.Gauge
	queueDepth        prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector registered with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of node runs by kind and final state",
			},
			[]string{"kind", "status"},
		),
		runsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_rejected_total",
				Help:      "Total number of run requests rejected before starting",
			},
			[]string{"kind", "reason"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Node run duration in seconds",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"kind"},
		),
		generationCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_calls_total",
				Help:      "Total number of calls to the generation service",
			},
			[]string{"operation", "model"},
		),
		generationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_errors_total",
				Help:      "Total number of failed calls to the generation service",
			},
			[]string{"operation", "model"},
		),
		generationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_latency_seconds",
				Help:      "Generation service call latency in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 60},
			},
			[]string{"operation", "model"},
		),
		graphNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Number of nodes in the graph",
			},
		),
		graphEdges: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Number of edges in the graph",
			},
		),
		workerPoolIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "worker_pool_idle",
				Help:      "Number of idle workers",
			},
		),
		workerPoolBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "worker_pool_busy",
				Help:      "Number of busy workers",
			},
		),
		workerPoolStopped: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "worker_pool_stopped",
				Help:      "Number of stopped workers",
			},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Number of runs waiting for a worker",
			},
		),
	}
}

// RecordRun records a finished node run
func (c *Collector) RecordRun(kind string, status string, duration time.Duration) {
	c.runsTotal.WithLabelValues(kind, status).Inc()
	c.runDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRunRejected records a run request that never started
func (c *Collector) RecordRunRejected(kind string, reason string) {
	c.runsRejected.WithLabelValues(kind, reason).Inc()
}

// RecordGenerationCall records one call to the generation service
func (c *Collector) RecordGenerationCall(operation string, model string, duration time.Duration, err error) {
	c.generationCalls.WithLabelValues(operation, model).Inc()
	c.generationLatency.WithLabelValues(operation, model).Observe(duration.Seconds())
	if err != nil {
		c.generationErrors.WithLabelValues(operation, model).Inc()
	}
}

// RecordGraphSize records the current graph size
func (c *Collector) RecordGraphSize(nodes, edges int) {
	c.graphNodes.Set(float64(nodes))
	c.graphEdges.Set(float64(edges))
}

// RecordWorkerPoolStatus records worker pool status
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}

// RecordQueueDepth records how many runs are waiting for a worker
func (c *Collector) RecordQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}
