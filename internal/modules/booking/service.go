// README: Ride submission: one create-ride call per valid, estimated request.
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"ridebook/internal/backend"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/modules/ride"
)

const msgSubmitFailed = "Unable to request ride. Please try again."

var ErrEstimateRequired = errors.New("a ready fare estimate for this route and class is required")

// Creator creates rides at the authority. backend.Client implements it.
type Creator interface {
	CreateRide(ctx context.Context, req backend.CreateRideRequest) (*backend.RideDTO, error)
}

// SubmitError carries the message to show the user.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

type Service struct {
	creator Creator
	log     logrus.FieldLogger
}

func NewService(creator Creator, log logrus.FieldLogger) *Service {
	return &Service{creator: creator, log: log}
}

// CanSubmit reports whether f would pass Build and quote covers it.
func CanSubmit(f Form, quote pricing.Quote) bool {
	req, err := Build(f)
	return err == nil && quote.ValidFor(req.Pickup, req.Destination, req.RideClass)
}

// Submit validates f and creates the ride. Nothing is sent unless quote is
// ready for exactly this route and class.
func (s *Service) Submit(ctx context.Context, f Form, quote pricing.Quote) (*ride.Ride, error) {
	req, err := Build(f)
	if err != nil {
		return nil, err
	}
	if !quote.ValidFor(req.Pickup, req.Destination, req.RideClass) {
		return nil, ErrEstimateRequired
	}

	d, err := s.creator.CreateRide(ctx, req.DTO())
	if err != nil {
		msg := backend.Message(err)
		if msg == "" {
			msg = msgSubmitFailed
		}
		s.log.WithError(err).WithField("ride_class", req.RideClass).Warn("ride request failed")
		return nil, &SubmitError{Message: msg, Err: err}
	}
	r, err := ride.FromDTO(d)
	if err != nil {
		s.log.WithError(err).Error("create ride returned an unusable ride")
		return nil, &SubmitError{Message: msgSubmitFailed, Err: err}
	}
	s.log.WithFields(logrus.Fields{"ride_id": r.ID, "status": r.Status}).Info("ride requested")
	return r, nil
}
