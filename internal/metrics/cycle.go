// Package metrics exports work cycle and frame server metrics in the
// Prometheus format. A work cycle runs in a short-lived process, so its
// metrics are written to a node_exporter textfile when the cycle ends.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/framecast/internal/app"
	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

const namespace = "framecast"

// CycleMetrics implements app.CycleEventEmitter.
type CycleMetrics struct {
	registry *prometheus.Registry
	textfile string
	logger   ports.Logger

	phaseChanges      *prometheus.CounterVec
	framesStored      prometheus.Counter
	framesDisplayed   prometheus.Counter
	dequeueFailures   prometheus.Counter
	purges            *prometheus.CounterVec
	replenishDuration prometheus.Histogram
	replenishErrors   prometheus.Counter
	queueDepth        prometheus.Gauge
	lastDisplayedSeq  prometheus.Gauge
	lastCycleEnd      prometheus.Gauge
}

var _ app.CycleEventEmitter = (*CycleMetrics)(nil)

// NewCycleMetrics creates the cycle collectors. textfile may be empty, in
// which case nothing is written when the cycle ends.
func NewCycleMetrics(textfile string, logger ports.Logger) *CycleMetrics {
	m := &CycleMetrics{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		logger:   logger,
		phaseChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_changes_total",
			Help:      "Work cycle phase transitions.",
		}, []string{"from", "to"}),
		framesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_stored_total",
			Help:      "Frames written to the queue.",
		}),
		framesDisplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_displayed_total",
			Help:      "Frames rendered on the display.",
		}),
		dequeueFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dequeue_failures_total",
			Help:      "Failed dequeue attempts.",
		}),
		purges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purges_total",
			Help:      "Full queue erasures by reason.",
		}, []string{"reason"}),
		replenishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replenish_duration_seconds",
			Help:      "Time spent connecting and filling the queue.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		replenishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replenish_errors_total",
			Help:      "Replenish runs that ended early.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Frames resident at the end of the cycle.",
		}),
		lastDisplayedSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_displayed_sequence",
			Help:      "Sequence number of the frame on screen, -1 if none was shown.",
		}),
		lastCycleEnd: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_end_timestamp_seconds",
			Help:      "Unix time the last work cycle ended.",
		}),
	}
	m.registry.MustRegister(
		m.phaseChanges,
		m.framesStored,
		m.framesDisplayed,
		m.dequeueFailures,
		m.purges,
		m.replenishDuration,
		m.replenishErrors,
		m.queueDepth,
		m.lastDisplayedSeq,
		m.lastCycleEnd,
	)
	return m
}

// Registry exposes the collectors, mainly for tests.
func (m *CycleMetrics) Registry() *prometheus.Registry { return m.registry }

func (m *CycleMetrics) OnPhaseChange(previous, current app.Phase, reason string) {
	m.phaseChanges.WithLabelValues(previous.String(), current.String()).Inc()
}

func (m *CycleMetrics) OnFrameStored(seq uint64) { m.framesStored.Inc() }

func (m *CycleMetrics) OnFrameDisplayed(seq uint64) { m.framesDisplayed.Inc() }

func (m *CycleMetrics) OnDequeueFailure(err error) { m.dequeueFailures.Inc() }

func (m *CycleMetrics) OnPurge(reason string) { m.purges.WithLabelValues(reason).Inc() }

func (m *CycleMetrics) OnReplenish(stored int, duration time.Duration, err error) {
	m.replenishDuration.Observe(duration.Seconds())
	if err != nil {
		m.replenishErrors.Inc()
	}
}

// OnCycleEnd records the final status and writes the textfile.
func (m *CycleMetrics) OnCycleEnd(status domain.CycleStatus) {
	m.queueDepth.Set(float64(status.QueueDepth))
	m.lastDisplayedSeq.Set(float64(status.DisplayedSeq))
	m.lastCycleEnd.Set(float64(status.EndedAt.Unix()))

	if m.textfile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
		m.logger.Warn("write metrics textfile", ports.String("path", m.textfile), ports.Err(err))
	}
}
