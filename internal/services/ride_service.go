// Package services – RideService
//
// This file implements the RideService, which owns the ride lifecycle:
// creation with expiry derivation, listing and substring search, per-creator
// listing, the user dashboard, and owner-only deletion with cascade. Seat
// mutation is not exposed here; it happens only inside the approval
// transition in RequestService.
//
// Service-level errors (e.g. ErrRideNotFound, ErrNotRideOwner) are returned
// for predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campusride/go-ride-backend/internal/domain"
	"github.com/campusride/go-ride-backend/internal/observability"
)

// RideRepo defines the repository contract required by RideService.
// Implementations are responsible for persistence of ride documents.
type RideRepo interface {
	// InsertRide persists a new ride and returns it with the assigned id.
	InsertRide(ctx context.Context, db *mongo.Database, ride *domain.Ride) (*domain.Ride, error)

	// GetRide fetches a ride by hex id; repo.ErrNotFound when unresolved.
	GetRide(ctx context.Context, db *mongo.Database, id string) (*domain.Ride, error)

	// ListRides returns rides by exact-location filters, departure ascending.
	ListRides(ctx context.Context, db *mongo.Database, from, to string) ([]domain.Ride, error)

	// SearchRides returns future rides matching substrings case-insensitively.
	SearchRides(ctx context.Context, db *mongo.Database, fromSub, toSub string, now time.Time) ([]domain.Ride, error)

	// ListRidesByCreator returns all rides created by userID.
	ListRidesByCreator(ctx context.Context, db *mongo.Database, userID string) ([]domain.Ride, error)

	// RidesByIDs batch-fetches rides by hex id.
	RidesByIDs(ctx context.Context, db *mongo.Database, ids []string) ([]domain.Ride, error)

	// DeleteRide removes a ride; repo.ErrNotFound when nothing matched.
	DeleteRide(ctx context.Context, db *mongo.Database, id string) error
}

// RequestCascade is the slice of the join-request repository the ride side
// needs: resolving approved memberships for the dashboard and cascading
// deletes.
type RequestCascade interface {
	ListApprovedByRequester(ctx context.Context, db *mongo.Database, userID string) ([]domain.JoinRequest, error)
	DeleteRequestsForRide(ctx context.Context, db *mongo.Database, rideID string) (int64, error)
}

// RideService provides ride lifecycle operations. All methods are stateless
// units of work against the shared store handle.
type RideService struct {
	// DB is the document store handle used for persistence.
	DB *mongo.Database
	// Rides is the ride repository used by this service.
	Rides RideRepo
	// Requests covers the cascade/dashboard slice of the request repository.
	Requests RequestCascade

	// ExpiryGrace is added to the departure time to derive expires_at.
	ExpiryGrace time.Duration

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewRideService constructs a RideService with the conventional two-hour
// expiry grace.
func NewRideService(db *mongo.Database, rides RideRepo, requests RequestCascade) *RideService {
	return &RideService{
		DB:          db,
		Rides:       rides,
		Requests:    requests,
		ExpiryGrace: 2 * time.Hour,
		now:         time.Now,
	}
}

// CreateRideInput carries the caller-supplied attributes for a new ride.
// Seats and price are stored as given; the transport layer enforces types
// only, mirroring the observed behavior of the system this replaces.
type CreateRideInput struct {
	FromLocation  string
	ToLocation    string
	DepartureTime time.Time
	Seats         int
	PricePerSeat  int
	Remark        *string
	CreatedBy     string
}

// Create persists a new ride. The departure instant is normalized to UTC
// (zone-less input is taken as UTC already by the JSON time decoding) and
// expires_at is derived exactly once: departure + ExpiryGrace. The document
// is immutable afterwards except for seat decrements and owner deletion.
func (s *RideService) Create(ctx context.Context, in CreateRideInput) (*domain.Ride, error) {
	departure := in.DepartureTime.UTC()
	ride := &domain.Ride{
		FromLocation:   strings.TrimSpace(in.FromLocation),
		ToLocation:     strings.TrimSpace(in.ToLocation),
		DepartureTime:  departure,
		ExpiresAt:      departure.Add(s.ExpiryGrace),
		SeatsAvailable: in.Seats,
		PricePerSeat:   in.PricePerSeat,
		Remark:         in.Remark,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      s.nowUTC(),
	}
	created, err := s.Rides.InsertRide(ctx, s.DB, ride)
	if err != nil {
		return nil, err
	}
	observability.RidesCreated.Inc()
	return created, nil
}

// Get fetches a ride by id, mapping unresolved ids to ErrRideNotFound.
func (s *RideService) Get(ctx context.Context, id string) (*domain.Ride, error) {
	ride, err := s.Rides.GetRide(ctx, s.DB, id)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return ride, nil
}

// List returns rides filtered by exact origin/destination match, ordered by
// departure time ascending. Empty filters return all rides; the result size
// is bounded only by store size.
func (s *RideService) List(ctx context.Context, from, to string) ([]domain.Ride, error) {
	return s.Rides.ListRides(ctx, s.DB, strings.TrimSpace(from), strings.TrimSpace(to))
}

// Search returns rides whose origin and destination contain the given
// substrings, case-insensitively, restricted to departures strictly in the
// future at call time.
func (s *RideService) Search(ctx context.Context, fromSub, toSub string) ([]domain.Ride, error) {
	return s.Rides.SearchRides(ctx, s.DB, strings.TrimSpace(fromSub), strings.TrimSpace(toSub), s.nowUTC())
}

// ListByCreator returns every ride the user published, unfiltered by time.
func (s *RideService) ListByCreator(ctx context.Context, userID string) ([]domain.Ride, error) {
	return s.Rides.ListRidesByCreator(ctx, s.DB, userID)
}

// Dashboard aggregates the user's created rides and the rides they joined
// (approved requests). Joined rides are fetched in one batch; rides that have
// since filled up or expired still appear as long as their document survives.
func (s *RideService) Dashboard(ctx context.Context, userID string) (created, joined []domain.Ride, err error) {
	created, err = s.Rides.ListRidesByCreator(ctx, s.DB, userID)
	if err != nil {
		return nil, nil, err
	}

	approved, err := s.Requests.ListApprovedByRequester(ctx, s.DB, userID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(approved))
	for _, r := range approved {
		ids = append(ids, r.RideID)
	}
	joined, err = s.Rides.RidesByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, nil, err
	}
	return created, joined, nil
}

// Delete removes a ride and cascades its join requests. Only the creator may
// delete; everyone else gets ErrNotRideOwner with all data left unchanged.
func (s *RideService) Delete(ctx context.Context, id, requesterID string) error {
	ride, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if ride.CreatedBy != requesterID {
		return ErrNotRideOwner
	}
	if err := s.Rides.DeleteRide(ctx, s.DB, id); err != nil {
		if isRepoNotFound(err) {
			// Lost a race with TTL eviction or a concurrent delete.
			return ErrRideNotFound
		}
		return err
	}
	if _, err := s.Requests.DeleteRequestsForRide(ctx, s.DB, id); err != nil {
		return err
	}
	observability.RidesDeleted.Inc()
	return nil
}

func (s *RideService) nowUTC() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}
