package video

import "github.com/prometheus/client_golang/prometheus"

var (
	framesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "depthd",
		Subsystem: "video",
		Name:      "frames_processed_total",
		Help:      "Total frames run through the depth/stereo pipeline",
	})

	framesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "depthd",
		Subsystem: "video",
		Name:      "frames_skipped_total",
		Help:      "Total unreadable frames skipped during batch processing",
	})

	windowsReclaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "depthd",
		Subsystem: "video",
		Name:      "batch_windows_total",
		Help:      "Total batch windows completed (one reclamation each)",
	})
)

func init() {
	prometheus.MustRegister(framesProcessed, framesSkipped, windowsReclaimed)
}
