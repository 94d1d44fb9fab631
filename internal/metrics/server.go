package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics instruments the frame server.
type ServerMetrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	framesServed  *prometheus.CounterVec
	batteryVolts  *prometheus.GaugeVec
	libraryFrames *prometheus.GaugeVec
	rescans       prometheus.Counter
}

// NewServerMetrics creates the collectors, including the Go runtime and
// process collectors.
func NewServerMetrics() *ServerMetrics {
	m := &ServerMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Image requests by response code.",
		}, []string{"code"}),
		framesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "frames_served_total",
			Help:      "Frames served per display.",
		}, []string{"display"}),
		batteryVolts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "battery_voltage_volts",
			Help:      "Last battery voltage reported by each display.",
		}, []string{"display"}),
		libraryFrames: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "library_frames",
			Help:      "Frames available per display.",
		}, []string{"display"}),
		rescans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "library_rescans_total",
			Help:      "Frame library rescans.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.framesServed,
		m.batteryVolts,
		m.libraryFrames,
		m.rescans,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Request counts one image request.
func (m *ServerMetrics) Request(code int) {
	m.requests.WithLabelValues(http.StatusText(code)).Inc()
}

// FrameServed counts a frame sent to display.
func (m *ServerMetrics) FrameServed(display string) {
	m.framesServed.WithLabelValues(display).Inc()
}

// BatteryVoltage records the voltage a display reported.
func (m *ServerMetrics) BatteryVoltage(display string, volts float64) {
	m.batteryVolts.WithLabelValues(display).Set(volts)
}

// LibraryRescanned records the frame count of every display after a rescan.
func (m *ServerMetrics) LibraryRescanned(counts map[string]int) {
	m.rescans.Inc()
	m.libraryFrames.Reset()
	for display, n := range counts {
		m.libraryFrames.WithLabelValues(display).Set(float64(n))
	}
}
