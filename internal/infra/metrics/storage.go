package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbConnections, leaderboardCache) }

var (
	dbConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections",
			Help:      "Postgres pool connections by state (total, idle, acquired).",
		},
		[]string{"state"},
	)

	leaderboardCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_cache_lookups_total",
			Help:      "Leaderboard reads served from Redis (hit) or Postgres (miss), per board scope.",
		},
		[]string{"scope", "result"},
	)
)

func SetDBConnections(total, idle, acquired int32) {
	dbConnections.WithLabelValues("total").Set(float64(total))
	dbConnections.WithLabelValues("idle").Set(float64(idle))
	dbConnections.WithLabelValues("acquired").Set(float64(acquired))
}

// IncLeaderboardCache records a lookup; scope is "world" or "group".
func IncLeaderboardCache(scope string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	leaderboardCache.WithLabelValues(norm(scope), result).Inc()
}
