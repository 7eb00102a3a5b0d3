package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus creates a registry with build info, runtime and process
// collectors, the running version, plus any extra collectors given (e.g. the
// db pool one).
func SetupPrometheus(version string, extraCollectors ...prometheus.Collector) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newVersionCollector(version),
	)
	for _, c := range extraCollectors {
		promRegistry.MustRegister(c)
	}

	return promRegistry
}

// always 1, the version is in the label
func newVersionCollector(version string) prometheus.Collector {
	if version == "" {
		version = "unknown"
	}
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "fitwise",
		Name:        "version_info",
		Help:        "Version of the running service",
		ConstLabels: prometheus.Labels{"version": version},
	}, func() float64 { return 1 })
}
