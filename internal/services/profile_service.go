// Package services – ProfileService
//
// Profiles are an external-collaborator concern: the registry and workflow
// only ever read a reduced (name, phone) projection for enrichment, while the
// HTTP layer exposes the usual upsert-on-login and point lookup.
package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campusride/go-ride-backend/internal/domain"
)

// ProfileRepo defines the repository contract required by ProfileService.
type ProfileRepo interface {
	UpsertProfile(ctx context.Context, db *mongo.Database, userID, fullName, phone, email string) error
	GetProfile(ctx context.Context, db *mongo.Database, userID string) (*domain.Profile, error)
}

// ProfileService provides profile upsert and lookup, plus the enrichment
// snippet used by ride and request listings.
type ProfileService struct {
	// DB is the document store handle used for persistence.
	DB *mongo.Database
	// Repo is the profile repository used by this service.
	Repo ProfileRepo
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *mongo.Database, r ProfileRepo) *ProfileService {
	return &ProfileService{DB: db, Repo: r}
}

// Upsert creates the profile if absent, otherwise updates it.
// Safe to call on every login.
func (s *ProfileService) Upsert(ctx context.Context, userID, fullName, phone, email string) error {
	return s.Repo.UpsertProfile(ctx, s.DB, userID,
		strings.TrimSpace(fullName), strings.TrimSpace(phone), strings.TrimSpace(email))
}

// Get fetches the full profile, or ErrProfileNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := s.Repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

// Snippet returns the reduced (name, phone) projection for enrichment.
// A missing profile yields the zero snippet, never an error, so listings stay
// renderable for users who have not filled in a profile yet.
func (s *ProfileService) Snippet(ctx context.Context, userID string) (domain.ProfileSnippet, error) {
	p, err := s.Repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.ProfileSnippet{}, nil
		}
		return domain.ProfileSnippet{}, err
	}
	return p.Snippet(), nil
}
