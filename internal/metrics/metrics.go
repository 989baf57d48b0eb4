// Package metrics declares the prometheus collectors of the game core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every collector of the server.
const Namespace = "pegfall"

var (
	FramesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_sent_total",
			Help:      "Frames handed to connections, by message kind",
		},
		[]string{"kind"},
	)
	BytesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_sent_total",
			Help:      "Payload bytes handed to connections",
		},
	)
	Deltas = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "deltas_total",
			Help:      "Roster deltas broadcast, by shape",
		},
		[]string{"shape"},
	)
	Commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "commands_total",
			Help:      "Commands processed by room loops",
		},
		[]string{"type"},
	)
	DecodeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "decode_errors_total",
			Help:      "Inbound frames dropped as undecodable",
		},
	)
	EncodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "encode_errors_total",
			Help:      "Outbound messages that failed validation",
		},
		[]string{"kind"},
	)
	TimerFires = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "timer_fires_total",
			Help:      "Round timer fires by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)
	RoundsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rounds_completed_total",
			Help:      "Rounds that reached round over",
		},
	)
	SlowConsumers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "slow_consumers_total",
			Help:      "Connections dropped because their send buffer was full",
		},
	)
	ActiveRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_rooms",
			Help:      "Rooms currently running",
		},
	)
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_connections",
			Help:      "Connections attached to a room",
		},
	)
)

// Timer fire outcomes
const (
	OutcomeApplied   = "applied"
	OutcomeStale     = "stale"
	OutcomeAbandoned = "abandoned"
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		FramesSent,
		BytesSent,
		Deltas,
		Commands,
		DecodeErrors,
		EncodeErrors,
		TimerFires,
		RoundsCompleted,
		SlowConsumers,
		ActiveRooms,
		ActiveConnections,
	}
}

func init() {
	prometheus.MustRegister(collectors()...)
}
