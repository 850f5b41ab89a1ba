// Package observability – domain-level Prometheus collectors. HTTP traffic
// metrics live in the middleware; the counters here track the ride lifecycle
// itself and are incremented by the service layer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RidesCreated counts successfully published rides.
	RidesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusride",
		Name:      "rides_created_total",
		Help:      "Total number of rides published.",
	})

	// RidesDeleted counts owner-initiated ride deletions (TTL evictions are
	// store-side and not observable here).
	RidesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusride",
		Name:      "rides_deleted_total",
		Help:      "Total number of rides deleted by their owner.",
	})

	// JoinRequests counts join-request outcomes by terminal event:
	// submitted, approved, rejected.
	JoinRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusride",
		Name:      "join_requests_total",
		Help:      "Join request events by outcome.",
	}, []string{"outcome"})

	// SeatConflicts counts approvals that lost the last seat to a concurrent
	// approval, i.e. the guarded decrement matched nothing.
	SeatConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusride",
		Name:      "seat_conflicts_total",
		Help:      "Approvals rejected because the seat count was already zero.",
	})
)
