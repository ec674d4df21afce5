// README: Location handlers: recent places, selection and search.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ridebook/internal/http/middleware"
	"ridebook/internal/modules/location"
	"ridebook/internal/types"
)

const defaultSearchLimit = 5

// Searcher finds places by free text. maps.Geocoder implements it.
type Searcher interface {
	Search(ctx context.Context, query string, near *types.Location, limit int) ([]types.Location, error)
}

type LocationHandler struct {
	location *location.Service
	search   Searcher
}

// NewLocationHandler accepts a nil searcher; search then answers 503.
func NewLocationHandler(svc *location.Service, search Searcher) *LocationHandler {
	return &LocationHandler{location: svc, search: search}
}

// Recent handles GET /api/locations/recent.
func (h *LocationHandler) Recent(c *gin.Context) {
	locs, err := h.location.Recent(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"locations": locs})
}

// Select handles POST /api/locations/recent: resolves and remembers one place.
func (h *LocationHandler) Select(c *gin.Context) {
	var in types.Location
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	loc, err := h.location.Select(c.Request.Context(), middleware.CallerUID(c), in)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, loc)
}

// Search handles GET /api/locations/search?q=&lat=&lng=&limit=.
func (h *LocationHandler) Search(c *gin.Context) {
	if h.search == nil {
		writeError(c, http.StatusServiceUnavailable, "search not configured")
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		writeError(c, http.StatusBadRequest, "missing q")
		return
	}
	limit := defaultSearchLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	var near *types.Location
	if c.Query("lat") != "" || c.Query("lng") != "" {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			writeError(c, http.StatusBadRequest, "invalid lat/lng")
			return
		}
		near = &types.Location{Address: "near", Latitude: lat, Longitude: lng}
	}

	locs, err := h.search.Search(c.Request.Context(), q, near, limit)
	if err != nil {
		writeError(c, http.StatusBadGateway, "search failed")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"locations": locs})
}
