// Profile HTTP handlers.
//
// This file exposes the REST endpoints for user profiles:
//   - PUT /profiles/{id}  (upsert, safe to call on every login)
//   - GET /profiles/{id}  (point lookup)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusride/go-ride-backend/internal/services"
)

// UpsertProfile godoc
// @ID          upsertProfile
// @Summary     Create or update a profile
// @Description Creates the profile if it does not exist, otherwise updates it. Intended to be called on every login.
// @Tags        Profiles
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true "User ID" example(user123)
// @Param       body  body  handlers.UpsertProfileRequest  true  "Profile payload"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /profiles/{id} [put]
func (h *Handlers) UpsertProfile(c *gin.Context) {
	var req UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "full_name and phone are required")
		return
	}
	if err := h.profSvc.Upsert(c.Request.Context(), c.Param("id"), req.FullName, req.Phone, req.Email); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Fetch a profile
// @Tags        Profiles
// @Produce     json
//
// @Param       id  path  string  true "User ID" example(user123)
//
// @Success     200  {object} domain.ProfileView
// @Failure     404  {object} handlers.ErrorResponse "Profile not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /profiles/{id} [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == services.ErrProfileNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p.View())
}
