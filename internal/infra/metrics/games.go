package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		lobbiesOpenedTotal,
		gamesFinishedTotal,
		pointsAwardedTotal,
		activeGames,
		tickDuration,
	)
}

var (
	lobbiesOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "game_lobbies_opened_total",
			Help:      "Lobbies opened, per game type.",
		},
		[]string{"game"},
	)

	gamesFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that ended, per game type and reason.",
		},
		[]string{"game", "reason"},
	)

	pointsAwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "game_points_awarded_total",
			Help:      "Sum of points awarded to players, per game type.",
		},
		[]string{"game"},
	)

	activeGames = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "games_active",
			Help:      "Games currently waiting for players or in progress.",
		},
	)

	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "game_tick_duration_ms",
			Help:      "Time spent advancing all game timers in one tick.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

func IncLobbyOpened(game string) {
	lobbiesOpenedTotal.WithLabelValues(norm(game)).Inc()
}

func IncGameFinished(game, reason string) {
	gamesFinishedTotal.WithLabelValues(norm(game), norm(reason)).Inc()
}

func AddPoints(game string, points int) {
	pointsAwardedTotal.WithLabelValues(norm(game)).Add(float64(points))
}

func SetActiveGames(n int) {
	activeGames.Set(float64(n))
}

func ObserveTick(d time.Duration) {
	tickDuration.Observe(float64(d.Milliseconds()))
}
