package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gamebot"

var (
	registry = prometheus.NewRegistry()
	pending  []prometheus.Collector
	regOnce  sync.Once
)

// register queues collectors from the init funcs of this package.
func register(cs ...prometheus.Collector) { pending = append(pending, cs...) }

// MustRegister adds the queued collectors and the Go runtime and process
// collectors to the bot's registry. Only the first call has an effect.
func MustRegister() {
	regOnce.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry.MustRegister(pending...)
	})
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
