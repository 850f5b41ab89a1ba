// Package repo – profiles collection.
package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campusride/go-ride-backend/internal/domain"
)

// UpsertProfile creates the profile on first sight and updates it afterwards.
// created_at is written only on insert. Safe to call on every login.
func UpsertProfile(ctx context.Context, db *mongo.Database, userID, fullName, phone, email string) error {
	now := time.Now().UTC()
	_, err := db.Collection(ColProfiles).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set": bson.M{
				"full_name":  fullName,
				"phone":      phone,
				"email":      email,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true))
	return err
}

// GetProfile fetches the profile keyed by userID, or ErrNotFound.
func GetProfile(ctx context.Context, db *mongo.Database, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.Collection(ColProfiles).FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
