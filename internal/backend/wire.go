// README: Wire shapes for the ride authority REST contract.
package backend

import "time"

// Pointer fields are required by the schema; a nil pointer after decode
// means the authority omitted the field.

type LocationDTO struct {
	Address   string   `json:"address" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	PlaceID   string   `json:"placeId,omitempty"`
}

type FareDTO struct {
	RideClass       string   `json:"rideClass" validate:"required,oneof=economy premium luxury"`
	BaseFare        *float64 `json:"baseFare" validate:"required,min=0"`
	DistanceFare    *float64 `json:"distanceFare" validate:"required,min=0"`
	TimeFare        *float64 `json:"timeFare" validate:"required,min=0"`
	SurgeFare       *float64 `json:"surgeFare" validate:"required,min=0"`
	SurgeMultiplier *float64 `json:"surgeMultiplier" validate:"required,min=1"`
	Taxes           *float64 `json:"taxes" validate:"required,min=0"`
	Discount        *float64 `json:"discount" validate:"required,min=0"`
	Total           *float64 `json:"total" validate:"required,min=0"`
	DistanceMeters  float64  `json:"distanceMeters" validate:"min=0"`
	DurationMinutes float64  `json:"durationMinutes" validate:"min=0"`
}

type DriverDTO struct {
	ID           string  `json:"id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Phone        string  `json:"phone,omitempty"`
	VehicleModel string  `json:"vehicleModel,omitempty"`
	VehiclePlate string  `json:"vehiclePlate,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
}

type TimestampsDTO struct {
	Requested      *time.Time `json:"requested" validate:"required"`
	Accepted       *time.Time `json:"accepted,omitempty"`
	DriverArriving *time.Time `json:"driverArriving,omitempty"`
	PickupTime     *time.Time `json:"pickupTime,omitempty"`
	DropoffTime    *time.Time `json:"dropoffTime,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
}

type RatingDTO struct {
	Value   int    `json:"value" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty"`
}

type RideDTO struct {
	ID                  string        `json:"id" validate:"required"`
	Status              string        `json:"status" validate:"required,oneof=pending accepted driver-arriving in-progress completed cancelled"`
	PickupLocation      LocationDTO   `json:"pickupLocation" validate:"required"`
	DestinationLocation LocationDTO   `json:"destinationLocation" validate:"required"`
	Driver              *DriverDTO    `json:"driver,omitempty" validate:"omitempty"`
	Fare                FareDTO       `json:"fare" validate:"required"`
	PaymentMethod       string        `json:"paymentMethod" validate:"required,oneof=cash card wallet"`
	Passengers          int           `json:"passengers" validate:"min=1,max=4"`
	Notes               string        `json:"notes,omitempty"`
	Timestamps          TimestampsDTO `json:"timestamps" validate:"required"`
	Rating              *RatingDTO    `json:"rating,omitempty" validate:"omitempty"`
}

type CreateRideRequest struct {
	Pickup        LocationDTO `json:"pickup"`
	Destination   LocationDTO `json:"destination"`
	RideClass     string      `json:"rideClass"`
	PaymentMethod string      `json:"paymentMethod"`
	Passengers    int         `json:"passengers"`
	Notes         string      `json:"notes,omitempty"`
	ScheduledTime *time.Time  `json:"scheduledTime,omitempty"`
}

type EstimateFareRequest struct {
	Pickup      LocationDTO `json:"pickup"`
	Destination LocationDTO `json:"destination"`
	RideClasses []string    `json:"rideClasses"`
}

type CancelRideRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RateDriverRequest struct {
	DriverID string `json:"driverId"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}
