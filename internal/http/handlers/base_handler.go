// README: Base handler utilities (JSON helpers, id checks, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/backend"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/location"
	"ridebook/internal/modules/quota"
	"ridebook/internal/modules/ride"
	"ridebook/internal/types"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// isValidID accepts the authority's ride ids: letters, digits, '-' and '_'.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func rideID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return "", false
	}
	return types.ID(id), true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeRideError maps domain errors to status codes. Authority messages are
// passed through when present.
func writeRideError(c *gin.Context, err error) {
	var (
		ve *booking.ValidationError
		se *booking.SubmitError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "invalid ride request", Fields: ve.Fields})
	case errors.As(err, &se):
		writeError(c, http.StatusBadGateway, se.Message)
	case errors.Is(err, booking.ErrEstimateRequired):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ride.ErrNotFound):
		writeError(c, http.StatusNotFound, "ride not found")
	case errors.Is(err, ride.ErrNotLoaded):
		writeError(c, http.StatusConflict, "ride not loaded yet")
	case errors.Is(err, ride.ErrActionNotAllowed), errors.Is(err, ride.ErrActionInFlight):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ride.ErrInvalidRating):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, location.ErrUnresolvable):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, quota.ErrExhausted):
		writeError(c, http.StatusTooManyRequests, err.Error())
	default:
		if msg := backend.Message(err); msg != "" {
			writeError(c, http.StatusBadGateway, msg)
			return
		}
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
