package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamon_bus_events_published_total",
		Help: "Events published onto the media event bus",
	}, []string{"type"})

	metricEventsUnobserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediamon_bus_events_unobserved_total",
		Help: "Events published while no subscriber was attached",
	})

	metricEventsLagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediamon_bus_events_lagged_total",
		Help: "Events skipped by subscribers that fell behind the ring buffer",
	})

	metricSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediamon_bus_subscribers",
		Help: "Open event bus subscriptions",
	})

	metricSSEEncodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediamon_sse_encode_failures_total",
		Help: "Events that could not be encoded for the SSE stream",
	})
)
