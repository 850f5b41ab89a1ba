// Package repo – query composition helpers.
//
// The filter builders are kept as pure functions so the exact query semantics
// (exact match vs. case-insensitive substring, future-only cutoffs) can be
// unit tested without a running store.
package repo

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// rideListFilter builds the exact-match listing filter. Empty inputs place no
// constraint on the corresponding field.
func rideListFilter(from, to string) bson.M {
	f := bson.M{}
	if from != "" {
		f["from_location"] = from
	}
	if to != "" {
		f["to_location"] = to
	}
	return f
}

// rideSearchFilter builds the substring search filter: case-insensitive
// matches on origin/destination and a strictly-future departure cutoff.
// Inputs are escaped with regexp.QuoteMeta so user text cannot inject
// pattern syntax into the store-side regex.
func rideSearchFilter(fromSub, toSub string, now time.Time) bson.M {
	f := bson.M{
		"departure_time": bson.M{"$gt": now},
	}
	if fromSub != "" {
		f["from_location"] = primitive.Regex{Pattern: regexp.QuoteMeta(fromSub), Options: "i"}
	}
	if toSub != "" {
		f["to_location"] = primitive.Regex{Pattern: regexp.QuoteMeta(toSub), Options: "i"}
	}
	return f
}

// pendingRequestFilter matches the single live request for a (ride, requester)
// pair. Conditional updates built on it decide state transitions atomically:
// at most one concurrent caller can win the pending → approved/rejected move.
func pendingRequestFilter(rideID, requesterID string) bson.M {
	return bson.M{
		"ride_id":      rideID,
		"requester_id": requesterID,
		"status":       "pending",
	}
}

// seatDecrementFilter guards the seat decrement: the update matches only while
// seats remain, so the count can never be driven negative even under
// concurrent approvals.
func seatDecrementFilter(id primitive.ObjectID) bson.M {
	return bson.M{
		"_id":             id,
		"seats_available": bson.M{"$gt": 0},
	}
}
