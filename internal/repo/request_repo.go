// Package repo – join_requests collection.
//
// State transitions are expressed as single conditional updates so that each
// invariant lives inside one per-document atomic operation (the store offers
// no cross-document transactions in this design).
package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campusride/go-ride-backend/internal/domain"
)

// InsertJoinRequest persists a new pending request. A concurrent duplicate for
// the same (ride, requester) pair trips the partial unique index and is mapped
// to ErrDuplicate.
func InsertJoinRequest(ctx context.Context, db *mongo.Database, req *domain.JoinRequest) (*domain.JoinRequest, error) {
	res, err := db.Collection(ColJoinRequests).InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid
	}
	return req, nil
}

// HasPendingRequest reports whether a live pending request exists for the
// (ride, requester) pair.
func HasPendingRequest(ctx context.Context, db *mongo.Database, rideID, requesterID string) (bool, error) {
	n, err := db.Collection(ColJoinRequests).CountDocuments(ctx, pendingRequestFilter(rideID, requesterID))
	return n > 0, err
}

// ListRequestsForRide returns the ride's requests with the given status.
func ListRequestsForRide(ctx context.Context, db *mongo.Database, rideID string, status domain.RequestStatus) ([]domain.JoinRequest, error) {
	cur, err := db.Collection(ColJoinRequests).Find(ctx,
		bson.M{"ride_id": rideID, "status": status})
	if err != nil {
		return nil, err
	}
	return decodeRequests(ctx, cur)
}

// ListApprovedByRequester returns every approved request made by userID.
// Feeds the "joined" half of the dashboard.
func ListApprovedByRequester(ctx context.Context, db *mongo.Database, userID string) ([]domain.JoinRequest, error) {
	cur, err := db.Collection(ColJoinRequests).Find(ctx,
		bson.M{"requester_id": userID, "status": domain.RequestApproved})
	if err != nil {
		return nil, err
	}
	return decodeRequests(ctx, cur)
}

// ResolvePendingRequest conditionally transitions the matching pending request
// to the given terminal status. The condition and the mutation share one
// update, so a request resolves at most once even when approve and reject race
// each other. ErrNotFound covers "already resolved" and "never existed" alike.
func ResolvePendingRequest(ctx context.Context, db *mongo.Database, rideID, requesterID string, to domain.RequestStatus) error {
	res, err := db.Collection(ColJoinRequests).UpdateOne(ctx,
		pendingRequestFilter(rideID, requesterID),
		bson.M{"$set": bson.M{"status": to}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRequestsForRide removes every request referencing rideID. Called as
// the cascade step of ride deletion.
func DeleteRequestsForRide(ctx context.Context, db *mongo.Database, rideID string) (int64, error) {
	res, err := db.Collection(ColJoinRequests).DeleteMany(ctx, bson.M{"ride_id": rideID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func decodeRequests(ctx context.Context, cur *mongo.Cursor) ([]domain.JoinRequest, error) {
	defer cur.Close(ctx)
	out := []domain.JoinRequest{}
	for cur.Next(ctx) {
		var r domain.JoinRequest
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cur.Err()
}
