package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "depthd",
		Subsystem: "manager",
		Name:      "loads_total",
		Help:      "Total number of model loads",
	})

	unloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "depthd",
		Subsystem: "manager",
		Name:      "unloads_total",
		Help:      "Total number of model unloads",
	})

	evictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "depthd",
		Subsystem: "manager",
		Name:      "idle_evictions_total",
		Help:      "Total number of idle-timeout evictions",
	})

	predictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "depthd",
		Subsystem: "manager",
		Name:      "predictions_total",
		Help:      "Total number of completed depth predictions",
	})

	reclaimsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "depthd",
		Subsystem: "manager",
		Name:      "device_reclaims_total",
		Help:      "Total number of coalesced device-memory reclamation requests",
	})
)

func init() {
	prometheus.MustRegister(loadsTotal, unloadsTotal, evictionsTotal, predictionsTotal, reclaimsTotal)
}
