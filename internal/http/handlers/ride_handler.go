// README: Ride view handlers: watch, read, cancel, rating prompt and rate.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ridebook/internal/http/middleware"
	"ridebook/internal/modules/ride"
	"ridebook/internal/modules/tracking"
	"ridebook/internal/types"
)

type RideHandler struct {
	registry *tracking.Registry
	rides    *ride.Service
	currency string
	log      logrus.FieldLogger
}

func NewRideHandler(registry *tracking.Registry, rides *ride.Service, currency string, log logrus.FieldLogger) *RideHandler {
	return &RideHandler{registry: registry, rides: rides, currency: currency, log: log}
}

type viewResponse struct {
	Ride   ride.ReadModel `json:"ride"`
	Loaded bool           `json:"loaded"`
	Notice string         `json:"notice,omitempty"`
}

func (h *RideHandler) respond(c *gin.Context, status int, v *ride.View) {
	rm, loaded := v.ReadModel(h.currency)
	notice, _ := v.TakeNotice()
	writeJSON(c, status, viewResponse{Ride: rm, Loaded: loaded, Notice: notice})
}

func (h *RideHandler) held(c *gin.Context) (types.ID, *ride.View, *tracking.Session, bool) {
	id, ok := rideID(c)
	if !ok {
		return "", nil, nil, false
	}
	v, sess, ok := h.registry.Lookup(middleware.CallerUID(c), id)
	if !ok {
		writeError(c, http.StatusNotFound, "ride not watched")
		return "", nil, nil, false
	}
	return id, v, sess, true
}

// Watch handles POST /api/rides/:id/watch and starts live sync.
func (h *RideHandler) Watch(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	handle := h.registry.Acquire(c.Request.Context(), middleware.CallerUID(c), id)
	h.respond(c, http.StatusAccepted, handle.View)
}

// Unwatch handles DELETE /api/rides/:id/watch.
func (h *RideHandler) Unwatch(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	if !h.registry.Release(middleware.CallerUID(c), id) {
		writeError(c, http.StatusNotFound, "ride not watched")
		return
	}
	c.Status(http.StatusNoContent)
}

// Get handles GET /api/rides/:id.
func (h *RideHandler) Get(c *gin.Context) {
	_, v, _, ok := h.held(c)
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, v)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/rides/:id/cancel.
func (h *RideHandler) Cancel(c *gin.Context) {
	id, v, sess, ok := h.held(c)
	if !ok {
		return
	}
	var req cancelReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	reconcile := func(ctx context.Context) {
		if err := sess.Reconcile(ctx); err != nil && !errors.Is(err, tracking.ErrBusy) {
			h.log.WithError(err).WithField("ride_id", id).Warn("reconcile after cancel failed")
		}
	}
	if err := h.rides.Cancel(c.Request.Context(), v, req.Reason, reconcile); err != nil {
		writeRideError(c, err)
		return
	}
	h.respond(c, http.StatusOK, v)
}

type promptReq struct {
	Open bool `json:"open"`
}

// RatingPrompt handles POST /api/rides/:id/rating-prompt.
func (h *RideHandler) RatingPrompt(c *gin.Context) {
	_, v, _, ok := h.held(c)
	if !ok {
		return
	}
	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !req.Open {
		v.CloseRatingPrompt()
	} else if !v.OpenRatingPrompt() {
		writeError(c, http.StatusConflict, ride.ErrActionNotAllowed.Error())
		return
	}
	h.respond(c, http.StatusOK, v)
}

type rateReq struct {
	Value   int    `json:"value"`
	Comment string `json:"comment"`
}

// Rate handles POST /api/rides/:id/rate.
func (h *RideHandler) Rate(c *gin.Context) {
	_, v, _, ok := h.held(c)
	if !ok {
		return
	}
	var req rateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.rides.Rate(c.Request.Context(), v, req.Value, req.Comment); err != nil {
		if errors.Is(err, ride.ErrInvalidRating) {
			writeJSON(c, http.StatusBadRequest, errorResponse{Error: v.RatingPrompt().Error})
			return
		}
		writeRideError(c, err)
		return
	}
	h.respond(c, http.StatusOK, v)
}
