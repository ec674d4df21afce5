// README: Ride request and assistant draft handlers.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/http/middleware"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/ride"
	"ridebook/internal/types"
)

// Allowance reports drafts left this month. quota.Service implements it.
type Allowance interface {
	Remaining(ctx context.Context, uid string) (int, error)
}

type BookingHandler struct {
	booking   *booking.Service
	assistant *booking.Assistant
	allowance Allowance
	fares     *FareHandler
	currency  string
}

// NewBookingHandler accepts a nil assistant (drafting answers 503) and a nil
// allowance (drafts are unmetered).
func NewBookingHandler(svc *booking.Service, assistant *booking.Assistant, allowance Allowance, fares *FareHandler, currency string) *BookingHandler {
	return &BookingHandler{booking: svc, assistant: assistant, allowance: allowance, fares: fares, currency: currency}
}

// Create handles POST /api/rides. The caller's last estimate must match the form.
func (h *BookingHandler) Create(c *gin.Context) {
	var form booking.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	uid := middleware.CallerUID(c)
	r, err := h.booking.Submit(c.Request.Context(), form, h.fares.Quote(uid))
	if err != nil {
		writeRideError(c, err)
		return
	}
	h.fares.Forget(uid)
	writeJSON(c, http.StatusCreated, ride.NewReadModel(*r, h.currency))
}

type draftReq struct {
	Message string          `json:"message"`
	Current *types.Location `json:"current,omitempty"`
}

// Draft handles POST /api/assist/draft.
func (h *BookingHandler) Draft(c *gin.Context) {
	if h.assistant == nil {
		writeError(c, http.StatusServiceUnavailable, "assistant not configured")
		return
	}
	var req draftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	d, err := h.assistant.Draft(ctx, middleware.CallerUID(c), req.Message, req.Current)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, d)
}

// Allowance handles GET /api/assist/allowance. Unmetered reports -1.
func (h *BookingHandler) Allowance(c *gin.Context) {
	if h.allowance == nil {
		writeJSON(c, http.StatusOK, gin.H{"remaining": -1})
		return
	}
	n, err := h.allowance.Remaining(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"remaining": n})
}
