package metrics

import (
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	childrenSpawned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procwarden",
		Name:      "children_spawned_total",
		Help:      "Total number of child processes created, by spawn mode.",
	}, []string{"mode"})

	childrenOutstanding = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "procwarden",
		Name:      "children_outstanding",
		Help:      "Number of child processes currently blocking a caller.",
	})

	childDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "procwarden",
		Name:      "child_duration_seconds",
		Help:      "Wall-clock time from child creation to exit in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
	}, []string{"mode"})

	childExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procwarden",
		Name:      "child_exit_total",
		Help:      "Child exits by spawn mode and result (success, failure, stream_error).",
	}, []string{"mode", "result"})

	interrupts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procwarden",
		Name:      "interrupts_total",
		Help:      "Interrupt signals observed, including duplicates.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "procwarden",
		Name:      "build_info",
		Help:      "Build metadata for the running procwarden binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

const (
	ResultSuccess     = "success"
	ResultFailure     = "failure"
	ResultStreamError = "stream_error"
)

func init() {
	registry.MustRegister(childrenSpawned, childrenOutstanding, childDuration, childExits, interrupts, buildInfo)
}

// Registry returns the Prometheus registry containing all procwarden metrics.
func Registry() *prometheus.Registry {
	return registry
}

// ChildSpawned counts a newly created child.
func ChildSpawned(mode string) {
	childrenSpawned.WithLabelValues(mode).Inc()
}

// ChildExited records the outcome of a waited-on child.
func ChildExited(mode string, exitCode int, d time.Duration) {
	result := ResultSuccess
	if exitCode != 0 {
		result = ResultFailure
	}
	childExits.WithLabelValues(mode, result).Inc()
	childDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// StreamFailed records a child whose output could not be fully read.
func StreamFailed(mode string) {
	childExits.WithLabelValues(mode, ResultStreamError).Inc()
}

// SetOutstanding publishes the number of blocking children.
func SetOutstanding(n int) {
	if n < 0 {
		n = 0
	}
	childrenOutstanding.Set(float64(n))
}

// InterruptObserved counts an interrupt signal.
func InterruptObserved() {
	interrupts.Inc()
}

// WriteTextfile exports the registry in the text exposition format, for
// node_exporter's textfile collector or CI artifact collection.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					if modified, err := strconv.ParseBool(setting.Value); err == nil {
						labels["vcs_modified"] = strconv.FormatBool(modified)
					}
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
