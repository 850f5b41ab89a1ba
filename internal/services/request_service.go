// Package services – RequestService
//
// This file implements the RequestService, which governs the join-request
// state machine: submission with self-join and capacity guards, listing, and
// the approve/reject transitions. Approval couples back into the ride's seat
// count through a guarded decrement so the count can never go negative, even
// when two approvals race for the last seat.
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campusride/go-ride-backend/internal/domain"
	"github.com/campusride/go-ride-backend/internal/observability"
)

// RequestRepo defines the repository contract required by RequestService.
type RequestRepo interface {
	// InsertJoinRequest persists a pending request; repo.ErrDuplicate when a
	// pending one already exists for the pair.
	InsertJoinRequest(ctx context.Context, db *mongo.Database, req *domain.JoinRequest) (*domain.JoinRequest, error)

	// HasPendingRequest reports whether a live pending request exists for the
	// (ride, requester) pair.
	HasPendingRequest(ctx context.Context, db *mongo.Database, rideID, requesterID string) (bool, error)

	// ListRequestsForRide returns the ride's requests with the given status.
	ListRequestsForRide(ctx context.Context, db *mongo.Database, rideID string, status domain.RequestStatus) ([]domain.JoinRequest, error)

	// ResolvePendingRequest conditionally moves pending → to; repo.ErrNotFound
	// when no pending request matched.
	ResolvePendingRequest(ctx context.Context, db *mongo.Database, rideID, requesterID string, to domain.RequestStatus) error
}

// SeatMutator is the slice of the ride repository the workflow needs: the
// guarded decrement and its compensation.
type SeatMutator interface {
	// GetRide fetches a ride by hex id; repo.ErrNotFound when unresolved.
	GetRide(ctx context.Context, db *mongo.Database, id string) (*domain.Ride, error)

	// DecrementSeat takes one seat iff seats_available > 0, atomically;
	// repo.ErrNotFound when the guard did not match.
	DecrementSeat(ctx context.Context, db *mongo.Database, id string) error

	// IncrementSeat returns one seat; compensation only.
	IncrementSeat(ctx context.Context, db *mongo.Database, id string) error
}

// RequestService implements the join-request workflow over the shared store.
type RequestService struct {
	// DB is the document store handle used for persistence.
	DB *mongo.Database
	// Requests is the join-request repository.
	Requests RequestRepo
	// Rides is the seat-mutation slice of the ride repository.
	Rides SeatMutator

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewRequestService constructs a RequestService.
func NewRequestService(db *mongo.Database, requests RequestRepo, rides SeatMutator) *RequestService {
	return &RequestService{DB: db, Requests: requests, Rides: rides, now: time.Now}
}

// Submit creates a pending join request for (rideID, requesterID).
//
// Validation order, first failure wins:
//   - ride must exist (ErrRideNotFound)
//   - requester must not be the creator (ErrOwnRide)
//   - the ride must have seats left (ErrNoSeats) — checked before any write
//   - no pending request may already exist for the pair (ErrDuplicateRequest)
//
// The duplicate guard is ultimately the partial unique index: a concurrent
// double submission that slips past the checks still maps to
// ErrDuplicateRequest at insert time. Re-requesting after a rejection is
// allowed; only a live pending request blocks.
func (s *RequestService) Submit(ctx context.Context, rideID, requesterID string) (*domain.JoinRequest, error) {
	ride, err := s.Rides.GetRide(ctx, s.DB, rideID)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	if ride.CreatedBy == requesterID {
		return nil, ErrOwnRide
	}
	if ride.SeatsAvailable <= 0 {
		return nil, ErrNoSeats
	}

	// Fast path; a concurrent double submission that slips past it is still
	// caught by the index at insert time.
	pending, err := s.Requests.HasPendingRequest(ctx, s.DB, ride.ID.Hex(), requesterID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicateRequest
	}

	req := &domain.JoinRequest{
		RideID:      ride.ID.Hex(),
		RequesterID: requesterID,
		Status:      domain.RequestPending,
		RequestedAt: s.now().UTC(),
	}
	created, err := s.Requests.InsertJoinRequest(ctx, s.DB, req)
	if err != nil {
		if isRepoDuplicate(err) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	observability.JoinRequests.WithLabelValues("submitted").Inc()
	return created, nil
}

// ListForRide returns the ride's join requests with the given status
// (pending when empty). The ride must exist.
func (s *RequestService) ListForRide(ctx context.Context, rideID string, status domain.RequestStatus) ([]domain.JoinRequest, error) {
	if status == "" {
		status = domain.RequestPending
	}
	ride, err := s.Rides.GetRide(ctx, s.DB, rideID)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return s.Requests.ListRequestsForRide(ctx, s.DB, ride.ID.Hex(), status)
}

// Approve moves the matching pending request to approved and consumes one
// seat. The store offers per-document atomicity only, so the operation is
// sequenced to keep every invariant inside a single conditional update:
//
//  1. The seat is taken first via the guarded decrement. A miss means the
//     capacity is already gone — ErrNoSeats, with no side effects at all.
//  2. The pending → approved transition runs as its own conditional update.
//     A miss means the request was never there or already resolved; the seat
//     taken in step 1 is handed back and ErrRequestNotFound is returned.
//
// Two approvals racing for the last seat therefore resolve with exactly one
// winner, and seats_available is never observed negative by any reader.
func (s *RequestService) Approve(ctx context.Context, rideID, requesterID string) error {
	ride, err := s.Rides.GetRide(ctx, s.DB, rideID)
	if err != nil {
		if isRepoNotFound(err) {
			return ErrRideNotFound
		}
		return err
	}
	if ride.SeatsAvailable <= 0 {
		return ErrNoSeats
	}

	if err := s.Rides.DecrementSeat(ctx, s.DB, ride.ID.Hex()); err != nil {
		if isRepoNotFound(err) {
			// The precheck passed but a concurrent approval got the seat.
			observability.SeatConflicts.Inc()
			return ErrNoSeats
		}
		return err
	}

	if err := s.Requests.ResolvePendingRequest(ctx, s.DB, ride.ID.Hex(), requesterID, domain.RequestApproved); err != nil {
		// Hand the seat back before reporting; best effort, the seat must not
		// stay consumed for a request that was never approved.
		if compErr := s.Rides.IncrementSeat(ctx, s.DB, ride.ID.Hex()); compErr != nil {
			return compErr
		}
		if isRepoNotFound(err) {
			return ErrRequestNotFound
		}
		return err
	}
	observability.JoinRequests.WithLabelValues("approved").Inc()
	return nil
}

// Reject moves the matching pending request to rejected. No seat mutation.
// ErrRequestNotFound when no pending request matches the pair.
func (s *RequestService) Reject(ctx context.Context, rideID, requesterID string) error {
	ride, err := s.Rides.GetRide(ctx, s.DB, rideID)
	if err != nil {
		if isRepoNotFound(err) {
			return ErrRideNotFound
		}
		return err
	}
	if err := s.Requests.ResolvePendingRequest(ctx, s.DB, ride.ID.Hex(), requesterID, domain.RequestRejected); err != nil {
		if isRepoNotFound(err) {
			return ErrRequestNotFound
		}
		return err
	}
	observability.JoinRequests.WithLabelValues("rejected").Inc()
	return nil
}
