package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BrewsTotal counts brews completed since process start.
	BrewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "espresso_brews_total",
			Help: "Number of completed brews since boot.",
		},
	)

	// BrewsAllTime mirrors the persisted all-time brew count.
	BrewsAllTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "espresso_brews_alltime",
			Help: "All-time brew count from the restart record.",
		},
	)

	// RestartsByReason mirrors the persisted per-reason restart counters.
	RestartsByReason = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "espresso_restarts",
			Help: "Restart count per categorized reason, from the restart record.",
		},
		[]string{"reason"},
	)

	// LinkUp reports the connection state per managed link (1=Up).
	LinkUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "espresso_link_up",
			Help: "Connection state of a managed link (1=Up, 0=otherwise).",
		},
		[]string{"link"},
	)

	// LinkAttempts reports the cumulative reconnect attempts per link since
	// boot or the last daily rollover.
	LinkAttempts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "espresso_link_attempts",
			Help: "Cumulative connection attempts per link.",
		},
		[]string{"link"},
	)

	// StatusPublishTotal counts outward status publish attempts by result.
	StatusPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "espresso_status_publish_total",
			Help: "Status report publish attempts.",
		},
		[]string{"result"}, // result: success/failed
	)

	// LoopHeartbeat is the software liveness signal: the unix time the
	// supervisor loop last reported itself alive.
	LoopHeartbeat = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "espresso_loop_heartbeat_seconds",
			Help: "Unix time the supervisor loop last fed the liveness signal.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BrewsTotal,
		BrewsAllTime,
		RestartsByReason,
		LinkUp,
		LinkAttempts,
		StatusPublishTotal,
		LoopHeartbeat,
	)
}
