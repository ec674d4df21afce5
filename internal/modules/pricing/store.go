// README: Pricing store backed by the ride authority's estimate-fare endpoint.
package pricing

import (
	"context"

	"ridebook/internal/backend"
	"ridebook/internal/types"
)

// Backend is the slice of the authority client the store needs.
type Backend interface {
	EstimateFare(ctx context.Context, req backend.EstimateFareRequest) ([]backend.FareDTO, error)
}

type Store struct {
	backend Backend
}

func NewStore(b Backend) *Store {
	return &Store{backend: b}
}

// RouteEstimates asks for every ride class on one route and keys the answer by class.
func (s *Store) RouteEstimates(ctx context.Context, pickup, destination types.Location) (map[RideClass]FareEstimate, error) {
	classes := make([]string, len(AllClasses))
	for i, c := range AllClasses {
		classes[i] = string(c)
	}
	dtos, err := s.backend.EstimateFare(ctx, backend.EstimateFareRequest{
		Pickup:      backend.LocationToDTO(pickup),
		Destination: backend.LocationToDTO(destination),
		RideClasses: classes,
	})
	if err != nil {
		return nil, err
	}
	out := make(map[RideClass]FareEstimate, len(dtos))
	for _, d := range dtos {
		f, err := FareFromDTO(d)
		if err != nil {
			return nil, err
		}
		out[f.RideClass] = f
	}
	return out, nil
}

// FareFromDTO converts a schema-validated DTO and enforces the fare sum invariant.
func FareFromDTO(d backend.FareDTO) (FareEstimate, error) {
	f := FareEstimate{
		RideClass:       RideClass(d.RideClass),
		BaseFare:        deref(d.BaseFare),
		DistanceFare:    deref(d.DistanceFare),
		TimeFare:        deref(d.TimeFare),
		SurgeFare:       deref(d.SurgeFare),
		SurgeMultiplier: deref(d.SurgeMultiplier),
		Taxes:           deref(d.Taxes),
		Discount:        deref(d.Discount),
		Total:           deref(d.Total),
		DistanceMeters:  d.DistanceMeters,
		DurationMinutes: d.DurationMinutes,
	}
	if err := f.Validate(); err != nil {
		return FareEstimate{}, &backend.ParseError{Op: "fare", Field: "total", Err: err}
	}
	return f, nil
}

// FareToDTO is the inverse of FareFromDTO.
func FareToDTO(f FareEstimate) backend.FareDTO {
	return backend.FareDTO{
		RideClass:       string(f.RideClass),
		BaseFare:        ptr(f.BaseFare),
		DistanceFare:    ptr(f.DistanceFare),
		TimeFare:        ptr(f.TimeFare),
		SurgeFare:       ptr(f.SurgeFare),
		SurgeMultiplier: ptr(f.SurgeMultiplier),
		Taxes:           ptr(f.Taxes),
		Discount:        ptr(f.Discount),
		Total:           ptr(f.Total),
		DistanceMeters:  f.DistanceMeters,
		DurationMinutes: f.DurationMinutes,
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func ptr(v float64) *float64 {
	return &v
}
