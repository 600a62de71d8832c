package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/jobrunner-go/internal/server/coordinator"
	"github.com/yndnr/jobrunner-go/internal/storage"
)

// StateFunc reports the current coordinator state.
type StateFunc func() coordinator.State

// StatsFunc reports job store statistics. ok is false while the store is
// not connected.
type StatsFunc func() (stats storage.Stats, ok bool)

var allStates = []coordinator.State{
	coordinator.StateIdle,
	coordinator.StateStarting,
	coordinator.StateRunning,
	coordinator.StateDraining,
	coordinator.StateClosed,
}

// Collector samples coordinator state and job store statistics at scrape time.
type Collector struct {
	state StateFunc
	stats StatsFunc

	stateDesc  *prometheus.Desc
	jobsDesc   *prometheus.Desc
	lsmDesc    *prometheus.Desc
	vlogDesc   *prometheus.Desc
	gcRunsDesc *prometheus.Desc
	lastGCDesc *prometheus.Desc
}

// NewCollector creates a collector. Either source may be nil.
func NewCollector(state StateFunc, stats StatsFunc) *Collector {
	return &Collector{
		state: state,
		stats: stats,

		stateDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "coordinator", "state"),
			"Current coordinator lifecycle state (1 for the active state).",
			[]string{"state"}, nil),
		jobsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "jobs"),
			"Jobs currently stored.",
			nil, nil),
		lsmDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "lsm_size_bytes"),
			"Badger LSM tree size in bytes.",
			nil, nil),
		vlogDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "value_log_size_bytes"),
			"Badger value log size in bytes.",
			nil, nil),
		gcRunsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "gc_runs_total"),
			"Completed value-log GC runs.",
			nil, nil),
		lastGCDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "last_gc_timestamp_seconds"),
			"Unix timestamp of the last value-log GC run.",
			nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stateDesc
	ch <- c.jobsDesc
	ch <- c.lsmDesc
	ch <- c.vlogDesc
	ch <- c.gcRunsDesc
	ch <- c.lastGCDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.state != nil {
		current := c.state()
		for _, s := range allStates {
			v := 0.0
			if s == current {
				v = 1
			}
			ch <- prometheus.MustNewConstMetric(c.stateDesc, prometheus.GaugeValue, v, s.String())
		}
	}

	if c.stats == nil {
		return
	}
	stats, ok := c.stats()
	if !ok {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.jobsDesc, prometheus.GaugeValue, float64(stats.Jobs))
	ch <- prometheus.MustNewConstMetric(c.lsmDesc, prometheus.GaugeValue, float64(stats.LSMSize))
	ch <- prometheus.MustNewConstMetric(c.vlogDesc, prometheus.GaugeValue, float64(stats.ValueLogSize))
	ch <- prometheus.MustNewConstMetric(c.gcRunsDesc, prometheus.CounterValue, float64(stats.GCRuns))
	if stats.LastGCTime > 0 {
		ch <- prometheus.MustNewConstMetric(c.lastGCDesc, prometheus.GaugeValue, float64(stats.LastGCTime)/1000.0)
	}
}
