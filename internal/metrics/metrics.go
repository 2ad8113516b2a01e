package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventhub"

// Registry is the Prometheus registry served on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Participation outcomes. Operation is "join" or "leave".
const (
	OutcomeJoined               = "joined"
	OutcomeLeft                 = "left"
	OutcomeAlreadyParticipating = "already_participating"
	OutcomeEventFull            = "event_full"
	OutcomeNotParticipating     = "not_participating"
	OutcomeNotFound             = "not_found"
	OutcomeError                = "error"
)

// ParticipationTotal counts join/leave attempts by outcome.
var ParticipationTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "participation_total",
		Help:      "Join and leave attempts by outcome",
	},
	[]string{"operation", "outcome"},
)

// NotificationsTotal counts notification emails by template and result.
var NotificationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification emails by template and result (sent, failed)",
	},
	[]string{"template", "result"},
)

// RecordParticipation increments ParticipationTotal.
func RecordParticipation(operation, outcome string) {
	ParticipationTotal.WithLabelValues(operation, outcome).Inc()
}

// RegisterDBStats exposes the pool statistics of db on Registry.
func RegisterDBStats(db *sql.DB) error {
	return Registry.Register(collectors.NewDBStatsCollector(db, "eventhub"))
}
