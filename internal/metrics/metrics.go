package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Realtime connection metrics
var (
	// ConnectionsActive tracks registered WebSocket connections, authenticated or not
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections_active",
			Help: "Registered WebSocket connections",
		},
	)

	// ConnectionsAuthenticated tracks connections bound to a user
	ConnectionsAuthenticated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections_authenticated",
			Help: "WebSocket connections bound to a user",
		},
	)

	// AuthAttemptsTotal tracks handshake outcomes by mode and result
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_auth_attempts_total",
			Help: "Handshake attempts by mode and result",
		},
		[]string{"mode", "result"},
	)

	// HeartbeatEvictionsTotal tracks connections terminated for missing a pong
	HeartbeatEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_heartbeat_evictions_total",
			Help: "Connections terminated after missing a heartbeat",
		},
	)

	// SlowClientsEvictedTotal tracks connections closed because their send queue was full
	SlowClientsEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_slow_clients_evicted_total",
			Help: "Connections closed because their outbound queue was full",
		},
	)
)

// Broadcast metrics
var (
	// EventsBroadcastTotal tracks broadcast calls by scope (all/user)
	EventsBroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_broadcast_total",
			Help: "Broadcast calls by scope",
		},
		[]string{"scope"},
	)

	// EventsDeliveredTotal tracks frames queued to a connection
	EventsDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_events_delivered_total",
			Help: "Event frames queued for delivery to connections",
		},
	)

	// EventsDroppedTotal tracks broadcasts discarded before reaching the hub
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_dropped_total",
			Help: "Broadcasts discarded by reason",
		},
		[]string{"reason"},
	)

	// RelayMessagesTotal tracks cross-instance relay traffic by direction and status
	RelayMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_relay_messages_total",
			Help: "Cross-instance relay messages by direction and status",
		},
		[]string{"direction", "status"},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal tracks API requests by method, route and status class
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks API latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
