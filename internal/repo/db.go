// Package repo implements the data persistence layer for domain documents,
// backed by the official MongoDB driver. This file contains connection
// bootstrapping and index management.
//
// All repository functions are context-aware and accept a *mongo.Database
// handle, making them safe for connection-scoped operations and easy to fake
// behind the narrow service interfaces. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names used across the repository functions.
const (
	ColRides        = "rides"
	ColJoinRequests = "join_requests"
	ColProfiles     = "profiles"
	ColIdempotency  = "idempotency"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate indicates a unique-index violation, e.g. a second pending
// join request for the same (ride, requester) pair.
var ErrDuplicate = errors.New("duplicate")

// Connect dials the document store and verifies the connection with a ping.
// It returns an explicit handle for injection; there is no package-level
// client and no import-time side effects.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*mongo.Database, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client.Database(database), nil
}

// EnsureIndexes creates the indexes the invariants depend on:
//
//   - rides.expires_at: TTL (expireAfterSeconds=0) — passive eviction of rides
//     once their expiry instant passes.
//   - join_requests (ride_id, requester_id): unique, partial on
//     status == "pending" — at most one live request per pair, while allowing
//     resubmission after rejection.
//   - join_requests (requester_id, status): dashboard lookups.
//   - idempotency (user_id, key): unique; idempotency.expires_at: TTL.
//
// Index creation races on process restarts are expected; "already exists"
// conflicts are logged and ignored rather than failing startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	create := func(col string, models []mongo.IndexModel) error {
		_, err := db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil && isIndexConflict(err) {
			log.Warn().Err(err).Str("collection", col).Msg("index already exists, skipping")
			return nil
		}
		return err
	}

	if err := create(ColRides, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "created_by", Value: 1}},
		},
	}); err != nil {
		return err
	}

	if err := create(ColJoinRequests, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ride_id", Value: 1}, {Key: "requester_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "pending"}}),
		},
		{
			Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "status", Value: 1}},
		},
	}); err != nil {
		return err
	}

	return create(ColIdempotency, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
}

// isIndexConflict reports whether err is a server-side "index already exists
// with different options / same name" class of error.
func isIndexConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// 85: IndexOptionsConflict, 86: IndexKeySpecsConflict
		return cmdErr.Code == 85 || cmdErr.Code == 86
	}
	return false
}
