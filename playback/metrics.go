package playback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessionsAttached = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediamon_sessions_attached_total",
		Help: "Media sessions attached",
	})

	metricSessionsDetached = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediamon_sessions_detached_total",
		Help: "Media sessions detached",
	})

	metricSessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediamon_session_active",
		Help: "1 while a media session is attached",
	})

	metricEventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamon_session_events_dropped_total",
		Help: "Events produced by a session after it was detached",
	}, []string{"type"})

	metricCommandFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamon_session_command_failures_total",
		Help: "Transport commands the OS reported as failed",
	}, []string{"command"})
)
