// Package domain defines the persistence documents for rides, join requests,
// and user profiles, plus their wire representations. Documents are mapped
// with the official MongoDB driver's bson tags and form the core data layer
// of the ride-sharing backend.
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus is the lifecycle state of a JoinRequest. A request is created
// pending and transitions exactly once to approved or rejected.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Valid reports whether s is one of the known request states.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// Ride represents a published offer of shared transportation. It is the root
// entity: join requests reference it by value (hex id) and are cascade-deleted
// with it.
//
// Fields:
//   - ID: store-assigned ObjectID.
//   - FromLocation / ToLocation: free-text origin and destination.
//   - DepartureTime: timezone-aware instant, normalized to UTC.
//   - ExpiresAt: DepartureTime plus a fixed grace period, computed once at
//     creation and immutable thereafter. A TTL index on this field evicts the
//     document passively; the application never runs a sweep.
//   - SeatsAvailable: remaining capacity; never negative, only ever decremented
//     one unit per approved join request.
//   - PricePerSeat: integer price as published by the creator.
//   - Remark: optional free text.
//   - CreatedBy: opaque identity string of the creator.
type Ride struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	FromLocation   string             `bson:"from_location"`
	ToLocation     string             `bson:"to_location"`
	DepartureTime  time.Time          `bson:"departure_time"`
	ExpiresAt      time.Time          `bson:"expires_at"`
	SeatsAvailable int                `bson:"seats_available"`
	PricePerSeat   int                `bson:"price_per_seat"`
	Remark         *string            `bson:"remark,omitempty"`
	CreatedBy      string             `bson:"created_by"`
	CreatedAt      time.Time          `bson:"created_at"`
}

// JoinRequest represents a requester's ask to occupy one seat on a ride.
//
// Invariants:
//   - At most one pending request per (ride, requester) pair; enforced by a
//     partial unique index filtered to status == "pending", so a rejected
//     requester may submit again.
//   - RequesterID always differs from the ride's CreatedBy.
type JoinRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	RideID      string             `bson:"ride_id"`
	RequesterID string             `bson:"requester_id"`
	Status      RequestStatus      `bson:"status"`
	RequestedAt time.Time          `bson:"requested_at"`
}

// Profile is the per-user contact record, keyed by the opaque user identity.
// It is upserted on every login and read back as a reduced (name, phone)
// snippet when enriching rides and join requests.
type Profile struct {
	UserID    string    `bson:"_id"`
	FullName  string    `bson:"full_name"`
	Phone     string    `bson:"phone"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// ProfileSnippet is the denormalized projection attached to rides and join
// requests for display. A missing profile yields the zero value.
type ProfileSnippet struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// RideView is the wire representation of a Ride. CreatedBy is kept separate
// from the enriched Creator snippet so the transport layer decides what to
// redact per endpoint.
type RideView struct {
	ID             string          `json:"id"`
	FromLocation   string          `json:"from_location"`
	ToLocation     string          `json:"to_location"`
	DepartureTime  time.Time       `json:"departure_time"`
	ExpiresAt      time.Time       `json:"expires_at"`
	SeatsAvailable int             `json:"seats_available"`
	PricePerSeat   int             `json:"price_per_seat"`
	Remark         *string         `json:"remark,omitempty"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Creator        *ProfileSnippet `json:"creator,omitempty"`
}

// View maps the stored document to its wire shape. Enrichment and redaction
// happen at the handler layer.
func (r *Ride) View() RideView {
	return RideView{
		ID:             r.ID.Hex(),
		FromLocation:   r.FromLocation,
		ToLocation:     r.ToLocation,
		DepartureTime:  r.DepartureTime,
		ExpiresAt:      r.ExpiresAt,
		SeatsAvailable: r.SeatsAvailable,
		PricePerSeat:   r.PricePerSeat,
		Remark:         r.Remark,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
	}
}

// JoinRequestView is the wire representation of a JoinRequest.
type JoinRequestView struct {
	ID          string          `json:"id"`
	RideID      string          `json:"ride_id"`
	RequesterID string          `json:"requester_id,omitempty"`
	Status      RequestStatus   `json:"status"`
	RequestedAt time.Time       `json:"requested_at"`
	Requester   *ProfileSnippet `json:"requester,omitempty"`
}

// View maps the stored document to its wire shape.
func (j *JoinRequest) View() JoinRequestView {
	return JoinRequestView{
		ID:          j.ID.Hex(),
		RideID:      j.RideID,
		RequesterID: j.RequesterID,
		Status:      j.Status,
		RequestedAt: j.RequestedAt,
	}
}

// ProfileView is the wire representation of a Profile.
type ProfileView struct {
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View maps the stored document to its wire shape.
func (p *Profile) View() ProfileView {
	return ProfileView{
		UserID:    p.UserID,
		FullName:  p.FullName,
		Phone:     p.Phone,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Snippet returns the reduced projection used for enrichment.
func (p *Profile) Snippet() ProfileSnippet {
	return ProfileSnippet{FullName: p.FullName, Phone: p.Phone}
}

// Idempotency represents a recorded result of a previously processed ride
// creation, keyed by (user_id, key). It enables safe retries of POST /rides by
// letting the handler return the originally created ride without re-executing
// side effects. Its expires_at field carries its own TTL index.
type Idempotency struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Key       string             `bson:"key"`
	RideID    string             `bson:"ride_id"`
	Status    int                `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
}
