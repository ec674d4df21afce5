// README: Fare estimate handler; one estimator per caller, standing in for their booking form.
package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ridebook/internal/http/middleware"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/types"
)

// FormIdleTTL is how long an untouched caller estimate is kept.
const FormIdleTTL = 30 * time.Minute

type fareForm struct {
	estimator *pricing.Estimator
	used      time.Time
}

type FareHandler struct {
	source   pricing.Source
	currency string
	log      logrus.FieldLogger
	now      func() time.Time

	mu    sync.Mutex
	forms map[string]*fareForm
}

func NewFareHandler(source pricing.Source, currency string, log logrus.FieldLogger) *FareHandler {
	return &FareHandler{source: source, currency: currency, log: log, now: time.Now, forms: make(map[string]*fareForm)}
}

func (h *FareHandler) estimator(uid string) *pricing.Estimator {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	h.sweepLocked(now)
	f, ok := h.forms[uid]
	if !ok {
		f = &fareForm{estimator: pricing.NewEstimator(h.source, h.log.WithField("uid", uid))}
		h.forms[uid] = f
	}
	f.used = now
	return f.estimator
}

// sweepLocked drops forms idle past FormIdleTTL.
func (h *FareHandler) sweepLocked(now time.Time) {
	for uid, f := range h.forms {
		if now.Sub(f.used) > FormIdleTTL {
			delete(h.forms, uid)
		}
	}
}

// Quote is the caller's latest quote; the zero Quote if they never asked
// or their form has expired.
func (h *FareHandler) Quote(uid string) pricing.Quote {
	h.mu.Lock()
	f, ok := h.forms[uid]
	if ok && h.now().Sub(f.used) > FormIdleTTL {
		delete(h.forms, uid)
		ok = false
	}
	h.mu.Unlock()
	if !ok {
		return pricing.Quote{}
	}
	return f.estimator.Current()
}

// Forget drops the caller's form, after a submit consumed it.
func (h *FareHandler) Forget(uid string) {
	h.mu.Lock()
	delete(h.forms, uid)
	h.mu.Unlock()
}

// Len is the number of caller forms held.
func (h *FareHandler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.forms)
}

type estimateReq struct {
	Pickup      types.Location    `json:"pickup"`
	Destination types.Location    `json:"destination"`
	RideClass   pricing.RideClass `json:"rideClass"`
}

type quoteResponse struct {
	State     pricing.State          `json:"state"`
	RideClass pricing.RideClass      `json:"rideClass"`
	Estimate  *pricing.FareEstimate  `json:"estimate,omitempty"`
	Breakdown []pricing.BreakdownRow `json:"breakdown,omitempty"`
	Classes   []pricing.FareEstimate `json:"classes,omitempty"`
}

// Estimate handles POST /api/fares/estimate. An unavailable estimate is a
// normal answer, not an error.
func (h *FareHandler) Estimate(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RideClass == "" {
		req.RideClass = pricing.ClassEconomy
	}

	e := h.estimator(middleware.CallerUID(c))
	q := e.Estimate(c.Request.Context(), req.Pickup, req.Destination, req.RideClass)

	resp := quoteResponse{State: q.State, RideClass: q.Key.RideClass}
	if q.State == pricing.StateReady && q.Estimate != nil {
		resp.Estimate = q.Estimate
		resp.Breakdown = pricing.BreakdownRows(*q.Estimate, h.currency)
		resp.Classes = e.All()
	}
	writeJSON(c, http.StatusOK, resp)
}
