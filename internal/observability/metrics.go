package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	LiveMeetings     prometheus.Gauge
	MeetingEvents    *prometheus.CounterVec
	TokenCollisions  prometheus.Counter
	WSMessages       *prometheus.CounterVec
	RelayConnections prometheus.Gauge
	RelayRooms       prometheus.Gauge
	RelayDeliveries  *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		LiveMeetings: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_meetings",
			Help:      "Number of unexpired meeting invitations.",
		}),
		MeetingEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meeting_events_total",
			Help:      "Meeting lifecycle events by type.",
		}, []string{"event"}),
		TokenCollisions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_collisions_total",
			Help:      "Meeting id collisions retried during create.",
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		RelayConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_connections",
			Help:      "Open signaling connections.",
		}),
		RelayRooms: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_rooms",
			Help:      "Signaling rooms with at least one member.",
		}),
		RelayDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_deliveries_total",
			Help:      "Relay delivery attempts by event and outcome.",
		}, []string{"event", "outcome"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
