// Ride HTTP handlers.
//
// This file exposes REST endpoints for ride resources:
//   - POST   /rides             (create, idempotent via Idempotency-Key)
//   - GET    /rides             (list with exact filters, ETag support)
//   - GET    /rides/search      (case-insensitive substring search)
//   - GET    /rides/{id}        (fetch one)
//   - DELETE /rides/{id}        (owner-only, cascades join requests)
//   - GET    /users/{id}/rides  (list by creator)
//   - GET    /dashboard         (current user's created + joined rides)
//
// Handlers are transport-thin: they validate input, call application
// services, attach profile enrichment, and translate results into HTTP
// responses.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campusride/go-ride-backend/internal/domain"
	"github.com/campusride/go-ride-backend/internal/http/middleware"
	"github.com/campusride/go-ride-backend/internal/repo"
	"github.com/campusride/go-ride-backend/internal/services"
	"github.com/campusride/go-ride-backend/internal/utils"
)

// maxPageSize caps the limit query parameter on listing endpoints.
const maxPageSize = 100

// listingETag derives the weak ETag for a ride listing. The seat total keeps
// the tag honest across approvals, which change seats_available without
// touching count or the newest created_at.
func listingETag(from, to string, stats *repo.ListingStats) string {
	var ts int64
	if stats.Last != nil {
		ts = stats.Last.Unix()
	}
	return fmt.Sprintf(`W/"rides:%s:%s:%d:%d:%d"`, from, to, stats.Count, ts, stats.SeatTotal)
}

// truncateToLimit cuts a ride slice down to the client-supplied limit query
// parameter. Without the parameter the full result set is returned; an
// unparseable or non-positive value falls back to the cap.
func truncateToLimit(c *gin.Context, rides *[]domain.Ride) {
	raw := c.Query("limit")
	if raw == "" {
		return
	}
	limit := utils.ClampLimit(utils.AtoiDefault(raw, 0), maxPageSize, maxPageSize)
	if len(*rides) > limit {
		*rides = (*rides)[:limit]
	}
}

//
// Service contracts (context-aware)
//

// RideService defines ride lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RideService interface {
	// Create publishes a new ride and returns the persisted document.
	Create(ctx context.Context, in services.CreateRideInput) (*domain.Ride, error)
	// Get fetches a single ride by hex id.
	Get(ctx context.Context, id string) (*domain.Ride, error)
	// List returns rides by exact origin/destination filters.
	List(ctx context.Context, from, to string) ([]domain.Ride, error)
	// Search returns future rides matching substrings case-insensitively.
	Search(ctx context.Context, fromSub, toSub string) ([]domain.Ride, error)
	// ListByCreator returns all rides published by userID.
	ListByCreator(ctx context.Context, userID string) ([]domain.Ride, error)
	// Dashboard returns the user's created and joined rides.
	Dashboard(ctx context.Context, userID string) (created, joined []domain.Ride, err error)
	// Delete removes a ride owned by requesterID, cascading its requests.
	Delete(ctx context.Context, id, requesterID string) error
}

// RequestService defines join-request workflow operations consumed by HTTP
// handlers.
type RequestService interface {
	// Submit creates a pending request for (rideID, requesterID).
	Submit(ctx context.Context, rideID, requesterID string) (*domain.JoinRequest, error)
	// ListForRide returns the ride's requests with the given status.
	ListForRide(ctx context.Context, rideID string, status domain.RequestStatus) ([]domain.JoinRequest, error)
	// Approve resolves the pending request and consumes one seat.
	Approve(ctx context.Context, rideID, requesterID string) error
	// Reject resolves the pending request without seat mutation.
	Reject(ctx context.Context, rideID, requesterID string) error
}

// ProfileService defines profile operations consumed by HTTP handlers,
// including the enrichment snippet attached to listings.
type ProfileService interface {
	// Upsert creates or updates the profile for userID.
	Upsert(ctx context.Context, userID, fullName, phone, email string) error
	// Get fetches the full profile.
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	// Snippet returns the reduced (name, phone) projection; zero when absent.
	Snippet(ctx context.Context, userID string) (domain.ProfileSnippet, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for rides, join requests, and profiles.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	rideSvc RideService
	reqSvc  RequestService
	profSvc ProfileService

	// idemTTL bounds how long a recorded Idempotency-Key stays valid.
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(rideSvc RideService, reqSvc RequestService, profSvc ProfileService, idemTTL time.Duration) *Handlers {
	return &Handlers{rideSvc: rideSvc, reqSvc: reqSvc, profSvc: profSvc, idemTTL: idemTTL}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to the "X-User-ID" header, and finally
// to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// storeHandle digs the shared *mongo.Database out of the concrete ride
// service when available. Best effort: ETag and idempotency short-circuits
// are skipped when handlers run against fakes.
func (h *Handlers) storeHandle() *mongo.Database {
	if svc, ok := h.rideSvc.(*services.RideService); ok {
		return svc.DB
	}
	return nil
}

//
// DTOs
//

// CreateRideRequest is the JSON payload for publishing a ride.
type CreateRideRequest struct {
	// FromLocation is the free-text origin.
	FromLocation string `json:"from_location" binding:"required" example:"North Campus"`
	// ToLocation is the free-text destination.
	ToLocation string `json:"to_location" binding:"required" example:"Airport T2"`
	// DepartureTime is RFC 3339; a zone-less value is taken as UTC.
	DepartureTime time.Time `json:"departure_time" binding:"required" example:"2025-11-02T16:30:00Z"`
	// SeatsAvailable is the published capacity. Pointer so a zero-seat ride
	// still satisfies the required binding.
	SeatsAvailable *int `json:"seats_available" binding:"required" example:"3"`
	// PricePerSeat is the integer price per seat. Pointer so a free ride
	// (price 0) still satisfies the required binding.
	PricePerSeat *int `json:"price_per_seat" binding:"required" example:"250"`
	// Remark is optional free text shown on the ride card.
	Remark *string `json:"remark,omitempty" example:"Luggage space for two bags"`
}

// UpsertProfileRequest is the JSON payload for creating/updating a profile.
type UpsertProfileRequest struct {
	FullName string `json:"full_name" binding:"required" example:"Priya Sharma"`
	Phone    string `json:"phone" binding:"required" example:"+91 98765 43210"`
	Email    string `json:"email" example:"priya@campus.edu"`
}

// DashboardResponse aggregates the rides a user created and the rides whose
// requests were approved for them.
type DashboardResponse struct {
	Created []domain.RideView `json:"created"`
	Joined  []domain.RideView `json:"joined"`
}

//
// Enrichment helpers
//

// enrichRides maps documents to wire views with the creator's profile snippet
// attached and the raw creator identity stripped. Listing endpoints expose
// the snippet only; detail endpoints keep created_by (see rideDetail).
func (h *Handlers) enrichRides(ctx context.Context, rides []domain.Ride) []domain.RideView {
	out := make([]domain.RideView, 0, len(rides))
	// Memoize lookups; listings repeat creators often.
	cache := map[string]domain.ProfileSnippet{}
	for i := range rides {
		v := rides[i].View()
		sn, seen := cache[rides[i].CreatedBy]
		if !seen {
			sn, _ = h.profSvc.Snippet(ctx, rides[i].CreatedBy)
			cache[rides[i].CreatedBy] = sn
		}
		snippet := sn
		v.Creator = &snippet
		v.CreatedBy = ""
		out = append(out, v)
	}
	return out
}

// rideDetail maps a single document to its wire view with both the raw
// creator identity and the enrichment attached, leaving redaction decisions
// to the caller of the detail endpoint.
func (h *Handlers) rideDetail(ctx context.Context, ride *domain.Ride) domain.RideView {
	v := ride.View()
	sn, _ := h.profSvc.Snippet(ctx, ride.CreatedBy)
	v.Creator = &sn
	return v
}

//
// Handlers
//

// CreateRide godoc
// @ID          createRide
// @Summary     Publish a new ride
// @Description Creates a ride for the current user. Expiry is derived from the departure time. Supports safe retries via the Idempotency-Key header.
// @Tags        Rides
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)" example(user123)
// @Param       Idempotency-Key  header  string  false "Safe-retry key"
// @Param       body             body    handlers.CreateRideRequest  true  "Create ride payload"
//
// @Success     201  {object}  domain.RideView
// @Success     200  {object}  domain.RideView "Replay of a previously created ride"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /rides [post]
func (h *Handlers) CreateRide(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// Serve replays without re-executing side effects.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey {
		if db := h.storeHandle(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, uid, key, time.Now().UTC()); err == nil {
				if ride, err := h.rideSvc.Get(ctx, rec.RideID); err == nil {
					ok(c, http.StatusOK, h.rideDetail(ctx, ride))
					return
				}
			}
		}
	}

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ride, err := h.rideSvc.Create(ctx, services.CreateRideInput{
		FromLocation:  req.FromLocation,
		ToLocation:    req.ToLocation,
		DepartureTime: req.DepartureTime,
		Seats:         *req.SeatsAvailable,
		PricePerSeat:  *req.PricePerSeat,
		Remark:        req.Remark,
		CreatedBy:     uid,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	// Record the key → ride mapping for future replays. Best effort: losing
	// the record only costs a duplicate on retry, never a failed create.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey {
		if db := h.storeHandle(); db != nil {
			_, _ = repo.CreateIdempotency(ctx, db, uid, key, ride.ID.Hex(), http.StatusCreated, h.idemTTL)
		}
	}

	ok(c, http.StatusCreated, h.rideDetail(ctx, ride))
}

// ListRides godoc
// @ID          listRides
// @Summary     List rides
// @Description Returns rides ordered by departure time ascending, optionally filtered by exact origin/destination. Results carry the creator's profile snippet. Supports weak ETag via If-None-Match.
// @Tags        Rides
// @Produce     json
//
// @Param       from           query   string  false "Exact origin filter"
// @Param       to             query   string  false "Exact destination filter"
// @Param       limit          query   int     false "Max results (cap 100; all results when omitted)"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}  domain.RideView
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /rides [get]
func (h *Handlers) ListRides(c *gin.Context) {
	ctx := c.Request.Context()
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))

	// ETag pre-check (best effort).
	if db := h.storeHandle(); db != nil {
		stats, err := repo.RideStats(ctx, db, from, to)
		if err == nil {
			etag := listingETag(from, to, stats)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	rides, err := h.rideSvc.List(ctx, from, to)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	truncateToLimit(c, &rides)
	ok(c, http.StatusOK, h.enrichRides(ctx, rides))
}

// SearchRides godoc
// @ID          searchRides
// @Summary     Search rides
// @Description Case-insensitive substring match on origin and destination; only rides departing in the future are returned.
// @Tags        Rides
// @Produce     json
//
// @Param       from   query  string  false "Origin substring" example(Lib)
// @Param       to     query  string  false "Destination substring" example(Gate)
// @Param       limit  query  int     false "Max results (cap 100; all results when omitted)"
//
// @Success     200  {array}  domain.RideView
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /rides/search [get]
func (h *Handlers) SearchRides(c *gin.Context) {
	ctx := c.Request.Context()
	rides, err := h.rideSvc.Search(ctx, c.Query("from"), c.Query("to"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	truncateToLimit(c, &rides)
	ok(c, http.StatusOK, h.enrichRides(ctx, rides))
}

// GetRide godoc
// @ID          getRide
// @Summary     Fetch a single ride
// @Tags        Rides
// @Produce     json
//
// @Param       id  path  string  true "Ride ID (hex)" example(665f1c2ab1e5a3d4c8f90e12)
//
// @Success     200  {object} domain.RideView
// @Failure     404  {object} handlers.ErrorResponse "Ride not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /rides/{id} [get]
func (h *Handlers) GetRide(c *gin.Context) {
	ctx := c.Request.Context()
	ride, err := h.rideSvc.Get(ctx, c.Param("id"))
	if err != nil {
		if err == services.ErrRideNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "ride not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, h.rideDetail(ctx, ride))
}

// DeleteRide godoc
// @ID          deleteRide
// @Summary     Delete a ride
// @Description Removes a ride owned by the current user and cascades all of its join requests.
// @Tags        Rides
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       id         path    string  true  "Ride ID (hex)"
//
// @Success     204  {string} string "No Content"
// @Failure     403  {object} handlers.ErrorResponse "Not the ride owner"
// @Failure     404  {object} handlers.ErrorResponse "Ride not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /rides/{id} [delete]
func (h *Handlers) DeleteRide(c *gin.Context) {
	err := h.rideSvc.Delete(c.Request.Context(), c.Param("id"), userID(c))
	switch err {
	case nil:
		noContent(c)
	case services.ErrRideNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "ride not found")
	case services.ErrNotRideOwner:
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only the ride owner may delete it")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ListUserRides godoc
// @ID          listUserRides
// @Summary     List rides published by a user
// @Tags        Rides
// @Produce     json
//
// @Param       id  path  string  true "Creator user ID" example(user123)
//
// @Success     200  {array}  domain.RideView
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id}/rides [get]
func (h *Handlers) ListUserRides(c *gin.Context) {
	ctx := c.Request.Context()
	rides, err := h.rideSvc.ListByCreator(ctx, c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, h.enrichRides(ctx, rides))
}

// Dashboard godoc
// @ID          dashboard
// @Summary     Per-user dashboard
// @Description Returns the rides the current user created and the rides they joined (approved requests), including rides that have since filled up.
// @Tags        Rides
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
//
// @Success     200  {object} handlers.DashboardResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	created, joined, err := h.rideSvc.Dashboard(ctx, userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, DashboardResponse{
		Created: h.enrichRides(ctx, created),
		Joined:  h.enrichRides(ctx, joined),
	})
}
