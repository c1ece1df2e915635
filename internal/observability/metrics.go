// Package observability provides metrics and tracing for the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ForgeCalls counts calls to the external generation agent by kind
	// (post, hashtags, image) and outcome (success, error).
	ForgeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialflow_forge_calls_total",
		Help: "Total number of external generation calls by kind and outcome",
	}, []string{"kind", "outcome"})

	// ForgeParseStrategy counts which normalizer strategy produced the
	// suggestions for a forge response.
	ForgeParseStrategy = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialflow_forge_parse_strategy_total",
		Help: "Total number of forge responses handled per parse strategy",
	}, []string{"strategy"})

	// StorePersistFailures counts write-through failures of the post store.
	// The in-memory collection stays authoritative when these occur.
	StorePersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialflow_store_persist_failures_total",
		Help: "Total number of failed durable writes of the post collection",
	})

	// WorkflowTransitions counts post status transitions by target state.
	WorkflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialflow_workflow_transitions_total",
		Help: "Total number of post workflow transitions by target status",
	}, []string{"to"})

	// ActiveWebSockets is the gauge of connected workflow-event clients.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialflow_websocket_connections",
		Help: "Number of active workflow event WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client's
	// send buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialflow_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialflow_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})
)
