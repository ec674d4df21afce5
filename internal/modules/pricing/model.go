// README: Fare estimate value object, ride classes and the fare sum invariant.
package pricing

import (
	"errors"
	"fmt"

	"ridebook/internal/types"
)

type RideClass string

const (
	ClassEconomy RideClass = "economy"
	ClassPremium RideClass = "premium"
	ClassLuxury  RideClass = "luxury"
)

// AllClasses is the order in which classes are requested and displayed.
var AllClasses = []RideClass{ClassEconomy, ClassPremium, ClassLuxury}

func (c RideClass) Valid() bool {
	switch c {
	case ClassEconomy, ClassPremium, ClassLuxury:
		return true
	}
	return false
}

var ErrInvalidFare = errors.New("invalid fare estimate")

type FareEstimate struct {
	RideClass       RideClass `json:"rideClass"`
	BaseFare        float64   `json:"baseFare"`
	DistanceFare    float64   `json:"distanceFare"`
	TimeFare        float64   `json:"timeFare"`
	SurgeFare       float64   `json:"surgeFare"`
	SurgeMultiplier float64   `json:"surgeMultiplier"`
	Taxes           float64   `json:"taxes"`
	Discount        float64   `json:"discount"`
	Total           float64   `json:"total"`
	DistanceMeters  float64   `json:"distanceMeters"`
	DurationMinutes float64   `json:"durationMinutes"`
}

// ComponentSum is base + distance + time + surge + taxes - discount.
func (f FareEstimate) ComponentSum() float64 {
	return f.BaseFare + f.DistanceFare + f.TimeFare + f.SurgeFare + f.Taxes - f.Discount
}

// Validate checks the non-negativity, surge and total invariants.
func (f FareEstimate) Validate() error {
	if !f.RideClass.Valid() {
		return fmt.Errorf("%w: unknown ride class %q", ErrInvalidFare, f.RideClass)
	}
	for name, v := range map[string]float64{
		"baseFare":     f.BaseFare,
		"distanceFare": f.DistanceFare,
		"timeFare":     f.TimeFare,
		"surgeFare":    f.SurgeFare,
		"taxes":        f.Taxes,
		"discount":     f.Discount,
		"total":        f.Total,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidFare, name)
		}
	}
	if f.SurgeMultiplier < 1 {
		return fmt.Errorf("%w: surge multiplier %.2f below 1", ErrInvalidFare, f.SurgeMultiplier)
	}
	if !types.MoneyEqual(f.Total, f.ComponentSum()) {
		return fmt.Errorf("%w: total %.2f does not match components %.2f", ErrInvalidFare, f.Total, f.ComponentSum())
	}
	return nil
}

// State is the availability of a fare quote.
type State string

const (
	StateReady       State = "ready"
	StatePending     State = "pending"
	StateUnavailable State = "unavailable"
)

// Key identifies the exact inputs an estimate was produced for.
type Key struct {
	Pickup      types.Location
	Destination types.Location
	RideClass   RideClass
}

func (k Key) String() string {
	return fmt.Sprintf("%s -> %s (%s)", k.Pickup.Address, k.Destination.Address, k.RideClass)
}

func (k Key) route() routeKey {
	return routeKey{pickup: k.Pickup, destination: k.Destination}
}

type routeKey struct {
	pickup      types.Location
	destination types.Location
}

// Quote is what the adapter reports for one (pickup, destination, class) tuple.
type Quote struct {
	Key      Key
	State    State
	Estimate *FareEstimate
}

// ValidFor reports whether q is a ready estimate for exactly this tuple.
func (q Quote) ValidFor(pickup, destination types.Location, class RideClass) bool {
	return q.State == StateReady && q.Estimate != nil &&
		q.Key == Key{Pickup: pickup, Destination: destination, RideClass: class}
}
