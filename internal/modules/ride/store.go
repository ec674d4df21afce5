// README: Ride store backed by the ride authority (get, cancel, rate).
package ride

import (
	"context"
	"fmt"
	"time"

	"ridebook/internal/backend"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/types"
)

type Backend interface {
	GetRide(ctx context.Context, id string) (*backend.RideDTO, error)
	CancelRide(ctx context.Context, id string, req backend.CancelRideRequest) (*backend.RideDTO, error)
	RateDriver(ctx context.Context, id string, req backend.RateDriverRequest) (*backend.RideDTO, error)
}

type Store struct {
	backend Backend
}

func NewStore(b Backend) *Store {
	return &Store{backend: b}
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Ride, error) {
	d, err := s.backend.GetRide(ctx, id.String())
	if err != nil {
		return nil, classify(err)
	}
	return FromDTO(d)
}

func (s *Store) Cancel(ctx context.Context, id types.ID, reason string) (*Ride, error) {
	d, err := s.backend.CancelRide(ctx, id.String(), backend.CancelRideRequest{Reason: reason})
	if err != nil {
		return nil, classify(err)
	}
	return FromDTO(d)
}

func (s *Store) Rate(ctx context.Context, id types.ID, driverID string, rating Rating) (*Ride, error) {
	d, err := s.backend.RateDriver(ctx, id.String(), backend.RateDriverRequest{
		DriverID: driverID,
		Rating:   rating.Value,
		Comment:  rating.Comment,
	})
	if err != nil {
		return nil, classify(err)
	}
	return FromDTO(d)
}

// classify keeps the authority error reachable while exposing ErrNotFound.
func classify(err error) error {
	if backend.IsNotFound(err) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// FromDTO converts a schema-validated ride; the fare sum invariant is re-checked.
func FromDTO(d *backend.RideDTO) (*Ride, error) {
	fare, err := pricing.FareFromDTO(d.Fare)
	if err != nil {
		return nil, err
	}
	r := &Ride{
		ID:            types.ID(d.ID),
		Status:        Status(d.Status),
		Pickup:        d.PickupLocation.Location(),
		Destination:   d.DestinationLocation.Location(),
		Fare:          fare,
		PaymentMethod: PaymentMethod(d.PaymentMethod),
		Passengers:    d.Passengers,
		Notes:         d.Notes,
		Timestamps: Timestamps{
			Requested:      utc(d.Timestamps.Requested),
			Accepted:       utc(d.Timestamps.Accepted),
			DriverArriving: utc(d.Timestamps.DriverArriving),
			PickupTime:     utc(d.Timestamps.PickupTime),
			DropoffTime:    utc(d.Timestamps.DropoffTime),
			CancelledAt:    utc(d.Timestamps.CancelledAt),
		},
	}
	if d.Driver != nil {
		r.Driver = &DriverSummary{
			ID:           d.Driver.ID,
			Name:         d.Driver.Name,
			Phone:        d.Driver.Phone,
			VehicleModel: d.Driver.VehicleModel,
			VehiclePlate: d.Driver.VehiclePlate,
			Rating:       d.Driver.Rating,
		}
	}
	if d.Rating != nil {
		r.Rating = &Rating{Value: d.Rating.Value, Comment: d.Rating.Comment}
	}
	return r, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
