// Join-request HTTP handlers.
//
// This file exposes the REST endpoints for the join-request workflow:
//   - POST /rides/{id}/requests                    (submit)
//   - GET  /rides/{id}/requests?status=            (list, default pending)
//   - POST /rides/{id}/requests/{userId}/approve
//   - POST /rides/{id}/requests/{userId}/reject
//
// Handlers here are transport-thin: they validate input, delegate to the
// workflow service, enrich results with requester profile snippets, and
// translate service errors into HTTP results.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusride/go-ride-backend/internal/domain"
	"github.com/campusride/go-ride-backend/internal/services"
)

// enrichRequests maps request documents to wire views with the requester's
// profile snippet attached. The raw requester identity stays on the view:
// the ride owner needs it to address the approve/reject endpoints.
func (h *Handlers) enrichRequests(ctx context.Context, reqs []domain.JoinRequest) []domain.JoinRequestView {
	out := make([]domain.JoinRequestView, 0, len(reqs))
	for i := range reqs {
		v := reqs[i].View()
		sn, _ := h.profSvc.Snippet(ctx, reqs[i].RequesterID)
		snippet := sn
		v.Requester = &snippet
		out = append(out, v)
	}
	return out
}

// failRequestErr maps workflow service errors onto the response envelope.
func failRequestErr(c *gin.Context, err error) {
	switch err {
	case services.ErrRideNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "ride not found")
	case services.ErrRequestNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "pending request not found")
	case services.ErrOwnRide:
		fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidOperation, "cannot request own ride")
	case services.ErrNoSeats:
		fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidOperation, "no seats available")
	case services.ErrDuplicateRequest:
		fail(c, http.StatusConflict, ErrCodeConflict, "request already pending")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// SubmitRequest godoc
// @ID          submitJoinRequest
// @Summary     Request to join a ride
// @Description Creates a pending join request for the current user. Rejected requesters may submit again; a live pending request blocks duplicates.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user456)
// @Param       id         path    string  true  "Ride ID (hex)"
//
// @Success     201  {object} domain.JoinRequestView
// @Failure     404  {object} handlers.ErrorResponse "Ride not found"
// @Failure     409  {object} handlers.ErrorResponse "Request already pending"
// @Failure     422  {object} handlers.ErrorResponse "Own ride or no seats"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /rides/{id}/requests [post]
func (h *Handlers) SubmitRequest(c *gin.Context) {
	req, err := h.reqSvc.Submit(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		failRequestErr(c, err)
		return
	}
	ok(c, http.StatusCreated, req.View())
}

// ListRequests godoc
// @ID          listJoinRequests
// @Summary     List join requests for a ride
// @Description Returns the ride's requests with the given status (pending by default), enriched with requester profile snippets.
// @Tags        Requests
// @Produce     json
//
// @Param       id      path   string  true  "Ride ID (hex)"
// @Param       status  query  string  false "pending|approved|rejected" default(pending)
//
// @Success     200  {array}  domain.JoinRequestView
// @Failure     400  {object} handlers.ErrorResponse "Unknown status"
// @Failure     404  {object} handlers.ErrorResponse "Ride not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /rides/{id}/requests [get]
func (h *Handlers) ListRequests(c *gin.Context) {
	ctx := c.Request.Context()

	status := domain.RequestStatus(c.DefaultQuery("status", string(domain.RequestPending)))
	if !status.Valid() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be pending, approved, or rejected")
		return
	}

	reqs, err := h.reqSvc.ListForRide(ctx, c.Param("id"), status)
	if err != nil {
		failRequestErr(c, err)
		return
	}
	ok(c, http.StatusOK, h.enrichRequests(ctx, reqs))
}

// ApproveRequest godoc
// @ID          approveJoinRequest
// @Summary     Approve a pending join request
// @Description Transitions the matching pending request to approved and consumes one seat. The seat count can never go negative: the decrement is guarded inside the same conditional update.
// @Tags        Requests
// @Produce     json
//
// @Param       id      path  string  true "Ride ID (hex)"
// @Param       userId  path  string  true "Requester user ID"
//
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Ride or pending request not found"
// @Failure     422  {object} handlers.ErrorResponse "No seats available"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /rides/{id}/requests/{userId}/approve [post]
func (h *Handlers) ApproveRequest(c *gin.Context) {
	if err := h.reqSvc.Approve(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		failRequestErr(c, err)
		return
	}
	noContent(c)
}

// RejectRequest godoc
// @ID          rejectJoinRequest
// @Summary     Reject a pending join request
// @Description Transitions the matching pending request to rejected. Seat count is untouched.
// @Tags        Requests
// @Produce     json
//
// @Param       id      path  string  true "Ride ID (hex)"
// @Param       userId  path  string  true "Requester user ID"
//
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Ride or pending request not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /rides/{id}/requests/{userId}/reject [post]
func (h *Handlers) RejectRequest(c *gin.Context) {
	if err := h.reqSvc.Reject(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		failRequestErr(c, err)
		return
	}
	noContent(c)
}
