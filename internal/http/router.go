// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ridebook/internal/http/handlers"
	"ridebook/internal/http/middleware"
	"ridebook/internal/infra"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/location"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/modules/ride"
	"ridebook/internal/modules/tracking"
)

type Deps struct {
	Verifier  infra.TokenVerifier
	Fares     pricing.Source
	Booking   *booking.Service
	Assistant *booking.Assistant
	Allowance handlers.Allowance
	Rides     *ride.Service
	Registry  *tracking.Registry
	Locations *location.Service
	Search    handlers.Searcher
	Currency  string
	Log       logrus.FieldLogger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(d.Log), middleware.Recovery(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(d.Verifier))

	fares := handlers.NewFareHandler(d.Fares, d.Currency, d.Log)
	api.POST("/fares/estimate", fares.Estimate)

	bookingHandler := handlers.NewBookingHandler(d.Booking, d.Assistant, d.Allowance, fares, d.Currency)
	api.POST("/rides", bookingHandler.Create)
	api.POST("/assist/draft", bookingHandler.Draft)
	api.GET("/assist/allowance", bookingHandler.Allowance)

	rideHandler := handlers.NewRideHandler(d.Registry, d.Rides, d.Currency, d.Log)
	api.POST("/rides/:id/watch", rideHandler.Watch)
	api.DELETE("/rides/:id/watch", rideHandler.Unwatch)
	api.GET("/rides/:id", rideHandler.Get)
	api.POST("/rides/:id/cancel", rideHandler.Cancel)
	api.POST("/rides/:id/rating-prompt", rideHandler.RatingPrompt)
	api.POST("/rides/:id/rate", rideHandler.Rate)

	locationHandler := handlers.NewLocationHandler(d.Locations, d.Search)
	api.GET("/locations/recent", locationHandler.Recent)
	api.POST("/locations/recent", locationHandler.Select)
	api.GET("/locations/search", locationHandler.Search)

	return r
}
