package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Advice backend
	AdviceFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_deck_advice_fetches_total",
			Help: "Advice backend requests by outcome",
		},
		[]string{"status"}, // status: success|connectivity|backend|http|unknown
	)

	AdviceFetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_deck_advice_fetch_latency_seconds",
			Help:    "Advice backend request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"status"},
	)

	// Polling query
	QueryCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_deck_query_cycles_total",
			Help: "Advice query refresh cycles by outcome",
		},
		[]string{"status"}, // status: success|error|discarded|cached
	)

	QuerySubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signal_deck_query_subscribers",
			Help: "Active advice query subscribers",
		},
	)

	QueryLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signal_deck_query_last_success_timestamp",
			Help: "Unix timestamp of the last applied advice refresh",
		},
	)

	// Surfaces
	WebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signal_deck_websocket_clients",
			Help: "Connected WebSocket clients",
		},
	)

	BotCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_deck_bot_commands_total",
			Help: "Telegram commands handled",
		},
		[]string{"command"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(AdviceFetches)
		prometheus.MustRegister(AdviceFetchLatency)
		prometheus.MustRegister(QueryCycles)
		prometheus.MustRegister(QuerySubscribers)
		prometheus.MustRegister(QueryLastSuccess)
		prometheus.MustRegister(WebSocketClients)
		prometheus.MustRegister(BotCommands)
	})
}

func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

func RecordAdviceFetch(status string, latency time.Duration) {
	AdviceFetches.WithLabelValues(status).Inc()
	AdviceFetchLatency.WithLabelValues(status).Observe(latency.Seconds())
}

func RecordQueryCycle(status string) {
	QueryCycles.WithLabelValues(status).Inc()
	if status == "success" {
		QueryLastSuccess.Set(float64(time.Now().Unix()))
	}
}
