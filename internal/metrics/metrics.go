// Package metrics counts what each pipeline stage did and exports the counts
// as a Prometheus textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "biasprobe"

// Recorder holds the stage counters of one run on its own registry
type Recorder struct {
	registry *prometheus.Registry

	entities          prometheus.Gauge
	invalidOvers      prometheus.Counter
	droppedRows       prometheus.Counter
	filesScanned      prometheus.Counter
	responsesIngested prometheus.Counter
	responsesSkipped  *prometheus.CounterVec
	duplicates        prometheus.Counter
	validations       prometheus.Counter
	supported         prometheus.Counter
	cacheHits         prometheus.Counter
	stageDuration     *prometheus.GaugeVec
	lastRun           prometheus.Gauge
}

// NewRecorder creates a recorder with a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Recorder{
		registry: reg,
		entities: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "groundtruth",
			Name:      "entities",
			Help:      "Number of entities in the fact sheet",
		}),
		invalidOvers: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "groundtruth",
			Name:      "invalid_overs_total",
			Help:      "Rows whose overs notation was treated as missing",
		}),
		droppedRows: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "groundtruth",
			Name:      "dropped_rows_total",
			Help:      "Source rows dropped for a blank or repeated name",
		}),
		filesScanned: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "files_scanned_total",
			Help:      "Candidate response files found",
		}),
		responsesIngested: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "responses_total",
			Help:      "Responses written to the response table",
		}),
		responsesSkipped: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "skipped_total",
			Help:      "Candidate files skipped, by reason",
		}, []string{"reason"}),
		duplicates: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duplicates_total",
			Help:      "Responses dropped as duplicates",
		}),
		validations: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "responses_total",
			Help:      "Responses validated",
		}),
		supported: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "supported_total",
			Help:      "Responses with at least one numerically supported entity",
		}),
		cacheHits: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "cache_hits_total",
			Help:      "Validation results served from the cache",
		}),
		stageDuration: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of the last execution of each stage",
		}, []string{"stage"}),
		lastRun: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the recorder was last exported",
		}),
	}
}

// Registry exposes the registry for gathering
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// GroundTruth records one aggregation
func (r *Recorder) GroundTruth(entities, invalidOvers, droppedRows int) {
	r.entities.Set(float64(entities))
	r.invalidOvers.Add(float64(invalidOvers))
	r.droppedRows.Add(float64(droppedRows))
}

// Ingest records one normalization
func (r *Recorder) Ingest(scanned, ingested, duplicates int) {
	r.filesScanned.Add(float64(scanned))
	r.responsesIngested.Add(float64(ingested))
	r.duplicates.Add(float64(duplicates))
}

// Skipped counts one skipped file
func (r *Recorder) Skipped(reason string) {
	r.responsesSkipped.WithLabelValues(reason).Inc()
}

// Validation records one validation pass
func (r *Recorder) Validation(responses, supported int, cacheHits int64) {
	r.validations.Add(float64(responses))
	r.supported.Add(float64(supported))
	r.cacheHits.Add(float64(cacheHits))
}

// ObserveStage records how long a stage took
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format, for node_exporter's textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	r.lastRun.SetToCurrentTime()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
