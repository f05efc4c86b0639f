package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(registrations, updatesHandled, rateLimited) }

var (
	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "First /start from a user or first sighting of a group.",
		},
		[]string{"kind"},
	)

	updatesHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_updates_total",
			Help:      "Telegram updates handled, by kind (command, callback, poll_answer, text) and name.",
		},
		[]string{"kind", "name"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_rate_limited_total",
			Help:      "Updates dropped by the per-user rate limit.",
		},
		[]string{"scope"},
	)
)

// IncRegistration counts a new "user" or "group".
func IncRegistration(kind string) { registrations.WithLabelValues(norm(kind)).Inc() }

func IncUpdate(kind, name string) { updatesHandled.WithLabelValues(norm(kind), norm(name)).Inc() }

func IncRateLimited(scope string) { rateLimited.WithLabelValues(norm(scope)).Inc() }
