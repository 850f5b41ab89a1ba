// Package repo – ride collection.
//
// Error semantics:
//   - When a ride is not found (including malformed hex ids), functions return
//     ErrNotFound.
//   - On store errors (connectivity, write concern, etc.) the raw driver error
//     is propagated; the service/handler layers decide how to surface it.
package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campusride/go-ride-backend/internal/domain"
)

// InsertRide persists a new ride document and returns it with the
// store-assigned id filled in.
func InsertRide(ctx context.Context, db *mongo.Database, ride *domain.Ride) (*domain.Ride, error) {
	res, err := db.Collection(ColRides).InsertOne(ctx, ride)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		ride.ID = oid
	}
	return ride, nil
}

// GetRide fetches a single ride by its hex id. Malformed ids and missing
// documents both map to ErrNotFound.
func GetRide(ctx context.Context, db *mongo.Database, id string) (*domain.Ride, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var r domain.Ride
	err = db.Collection(ColRides).FindOne(ctx, bson.M{"_id": oid}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRides returns rides matching the exact-location filters, ordered by
// departure time ascending. Empty filters return the whole collection.
func ListRides(ctx context.Context, db *mongo.Database, from, to string) ([]domain.Ride, error) {
	cur, err := db.Collection(ColRides).Find(ctx, rideListFilter(from, to),
		options.Find().SetSort(bson.D{{Key: "departure_time", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeRides(ctx, cur)
}

// SearchRides returns rides whose origin/destination contain the given
// substrings (case-insensitive) and whose departure is strictly in the future
// relative to now. No ordering guarantee beyond natural store order.
func SearchRides(ctx context.Context, db *mongo.Database, fromSub, toSub string, now time.Time) ([]domain.Ride, error) {
	cur, err := db.Collection(ColRides).Find(ctx, rideSearchFilter(fromSub, toSub, now))
	if err != nil {
		return nil, err
	}
	return decodeRides(ctx, cur)
}

// ListRidesByCreator returns every ride created by userID, unfiltered by time.
func ListRidesByCreator(ctx context.Context, db *mongo.Database, userID string) ([]domain.Ride, error) {
	cur, err := db.Collection(ColRides).Find(ctx, bson.M{"created_by": userID},
		options.Find().SetSort(bson.D{{Key: "departure_time", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeRides(ctx, cur)
}

// RidesByIDs fetches the given hex ids in one $in batch. Malformed ids are
// skipped; missing documents (e.g. TTL-evicted rides) are simply absent.
func RidesByIDs(ctx context.Context, db *mongo.Database, ids []string) ([]domain.Ride, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []domain.Ride{}, nil
	}
	cur, err := db.Collection(ColRides).Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	return decodeRides(ctx, cur)
}

// DecrementSeat atomically takes one seat, guarded on seats_available > 0
// within the same update. It returns ErrNotFound when no document matched,
// i.e. the ride is gone or already full; the caller treats that as "no seats".
func DecrementSeat(ctx context.Context, db *mongo.Database, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := db.Collection(ColRides).UpdateOne(ctx,
		seatDecrementFilter(oid),
		bson.M{"$inc": bson.M{"seats_available": -1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementSeat gives one seat back. Used only as compensation when an
// approval lost the status-transition race after taking a seat.
func IncrementSeat(ctx context.Context, db *mongo.Database, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = db.Collection(ColRides).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"seats_available": 1}})
	return err
}

// DeleteRide removes a single ride. ErrNotFound when nothing matched.
// Cascading the join requests is the caller's job (see DeleteRequestsForRide);
// the store offers no cross-collection transaction here.
func DeleteRide(ctx context.Context, db *mongo.Database, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := db.Collection(ColRides).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListingStats summarizes a ride listing for the weak ETag on GET /rides.
// SeatTotal is part of the tag so that an approval consuming a seat changes
// it even though count and the newest created_at stay put.
type ListingStats struct {
	Count     int64      `bson:"count"`
	Last      *time.Time `bson:"last"`
	SeatTotal int64      `bson:"seat_total"`
}

// RideStats aggregates count, most recent creation time and the seat total
// for a creator-agnostic listing.
func RideStats(ctx context.Context, db *mongo.Database, from, to string) (*ListingStats, error) {
	cur, err := db.Collection(ColRides).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: rideListFilter(from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"count":      bson.M{"$sum": 1},
			"last":       bson.M{"$max": "$created_at"},
			"seat_total": bson.M{"$sum": "$seats_available"},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, err
		}
		return &ListingStats{}, nil
	}
	var stats ListingStats
	if err := cur.Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// decodeRides drains a cursor into a slice, always returning a non-nil slice
// so handlers can serialize [] instead of null.
func decodeRides(ctx context.Context, cur *mongo.Cursor) ([]domain.Ride, error) {
	defer cur.Close(ctx)
	out := []domain.Ride{}
	for cur.Next(ctx) {
		var r domain.Ride
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cur.Err()
}
