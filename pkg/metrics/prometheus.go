// Package metrics provides Prometheus metrics for the jet dataset converter.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels of the duration histogram.
const (
	StageRead     = "read"
	StageMatch    = "match"
	StageTracks   = "tracks"
	StageAssemble = "assemble"
	StageConvert  = "convert"
	StageWrite    = "write"
)

// Manager manages all Prometheus metrics of a conversion run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Input volume
	events prometheus.Counter
	jets   prometheus.Counter
	tracks prometheus.Counter

	// Matching
	matchedJets     prometheus.Counter
	unmatchedJets   prometheus.Counter
	unknownFlavours prometheus.Counter

	// Assembly
	truncatedJets prometheus.Counter
	droppedTracks prometheus.Counter
	keptTracks    prometheus.Counter

	// Operational
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	workers       prometheus.Gauge
	outputBytes   prometheus.Gauge
	lastRunUnix   prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ucbtag",
		subsystem:        "convert",
		histogramBuckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registerer()).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registerer()).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

// registerer returns nil for a disabled manager; promauto then creates the
// collectors without registering them.
func (m *Manager) registerer() prometheus.Registerer {
	if !m.enabled {
		return nil
	}
	return m.registry
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.events = m.counter("events_total", "Total number of events converted")
	m.jets = m.counter("jets_total", "Total number of reconstructed jets converted")
	m.tracks = m.counter("tracks_total", "Total number of constituent tracks read")

	m.matchedJets = m.counter("matched_jets_total", "Jets matched to a truth particle inside the threshold")
	m.unmatchedJets = m.counter("unmatched_jets_total", "Jets with no truth particle inside the threshold")
	m.unknownFlavours = m.counter("unknown_flavours_total", "Matched jets whose flavour is missing from the label table")

	m.truncatedJets = m.counter("truncated_jets_total", "Jets with more tracks than constituent slots")
	m.droppedTracks = m.counter("dropped_tracks_total", "Tracks dropped by truncation")
	m.keptTracks = m.counter("kept_tracks_total", "Tracks written into constituent slots")

	auto := promauto.With(m.registerer())
	m.stageDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "stage_duration_seconds",
			Help:        "Duration of each pipeline stage in seconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.customLabels,
		},
		[]string{"stage"},
	)
	m.stageErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "stage_errors_total",
			Help:        "Total number of failed pipeline stages",
			ConstLabels: m.customLabels,
		},
		[]string{"stage"},
	)

	m.workers = m.gauge("workers", "Number of partition workers of the current run")
	m.outputBytes = m.gauge("output_bytes", "Size of the last written output file")
	m.lastRunUnix = m.gauge("last_run_timestamp_seconds", "Unix time at which the last run finished")
}

// Registry exposes the registerer the manager was built with.
func (m *Manager) Registry() prometheus.Registerer { return m.registry }

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled }

// ObserveStage records a stage duration.
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordStageError counts a failed stage.
func (m *Manager) RecordStageError(stage string) {
	m.stageErrors.WithLabelValues(stage).Inc()
}

// RecordInput counts the converted input volume.
func (m *Manager) RecordInput(events, jets, tracks int) {
	m.events.Add(float64(events))
	m.jets.Add(float64(jets))
	m.tracks.Add(float64(tracks))
}

// RecordMatching counts match outcomes.
func (m *Manager) RecordMatching(matched, unmatched, unknownFlavours int) {
	m.matchedJets.Add(float64(matched))
	m.unmatchedJets.Add(float64(unmatched))
	m.unknownFlavours.Add(float64(unknownFlavours))
}

// RecordAssembly counts constituent slot outcomes.
func (m *Manager) RecordAssembly(truncatedJets, droppedTracks, keptTracks int) {
	m.truncatedJets.Add(float64(truncatedJets))
	m.droppedTracks.Add(float64(droppedTracks))
	m.keptTracks.Add(float64(keptTracks))
}

// SetWorkers sets the worker gauge.
func (m *Manager) SetWorkers(n int) { m.workers.Set(float64(n)) }

// SetOutputBytes sets the size of the written file.
func (m *Manager) SetOutputBytes(n int64) { m.outputBytes.Set(float64(n)) }

// MarkRunFinished stamps the finish time of a run.
func (m *Manager) MarkRunFinished(t time.Time) { m.lastRunUnix.Set(float64(t.Unix())) }

// Global record functions operate on the process-wide manager.

// ObserveStage records a stage duration.
func ObserveStage(stage string, d time.Duration) { globalManager.ObserveStage(stage, d) }

// RecordStageError counts a failed stage.
func RecordStageError(stage string) { globalManager.RecordStageError(stage) }

// RecordInput counts the converted input volume.
func RecordInput(events, jets, tracks int) { globalManager.RecordInput(events, jets, tracks) }

// RecordMatching counts match outcomes.
func RecordMatching(matched, unmatched, unknownFlavours int) {
	globalManager.RecordMatching(matched, unmatched, unknownFlavours)
}

// RecordAssembly counts constituent slot outcomes.
func RecordAssembly(truncatedJets, droppedTracks, keptTracks int) {
	globalManager.RecordAssembly(truncatedJets, droppedTracks, keptTracks)
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.SetWorkers(count) }

// UpdateOutputBytes sets the size of the written file.
func UpdateOutputBytes(n int64) { globalManager.SetOutputBytes(n) }

// MarkRunFinished stamps the finish time of a run.
func MarkRunFinished(t time.Time) { globalManager.MarkRunFinished(t) }

// Default returns the process-wide manager backing the package functions.
func Default() *Manager { return globalManager }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes every metric of the custom registry to path in the
// node exporter textfile format. The write is atomic.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	return nil
}
