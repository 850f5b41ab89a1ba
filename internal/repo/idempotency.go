// Package repo – idempotency collection, backing safe-retry semantics for
// ride creation. Expired records are evicted by the collection's TTL index;
// the non-expiry guard in GetIdempotency only covers the eviction lag.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campusride/go-ride-backend/internal/domain"
)

// GetIdempotency returns a non-expired record for (userID, key) or ErrNotFound.
func GetIdempotency(ctx context.Context, db *mongo.Database, userID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.Collection(ColIdempotency).FindOne(ctx, bson.M{
		"user_id":    userID,
		"key":        key,
		"expires_at": bson.M{"$gt": now},
	}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency inserts a record and returns ErrDuplicate on a unique
// violation for (user_id, key).
func CreateIdempotency(ctx context.Context, db *mongo.Database, userID, key, rideID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		UserID:    userID,
		Key:       key,
		RideID:    rideID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if _, err := db.Collection(ColIdempotency).InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
