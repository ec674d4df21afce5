// README: Presentation read-model derived purely from a ride record.
package ride

import (
	"ridebook/internal/modules/pricing"
	"ridebook/internal/types"
)

type ReadModel struct {
	RideID            types.ID               `json:"rideId"`
	Status            Status                 `json:"status"`
	StatusLabel       string                 `json:"statusLabel"`
	StatusColor       string                 `json:"statusColor"`
	AllowedActions    []Action               `json:"allowedActions"`
	FareBreakdownRows []pricing.BreakdownRow `json:"fareBreakdownRows"`
	TimelineSteps     []TimelineStep         `json:"timelineSteps"`

	Pickup        types.Location       `json:"pickupLocation"`
	Destination   types.Location       `json:"destinationLocation"`
	Driver        *DriverSummary       `json:"driver,omitempty"`
	Fare          pricing.FareEstimate `json:"fare"`
	PaymentMethod PaymentMethod        `json:"paymentMethod"`
	Passengers    int                  `json:"passengers"`
	Notes         string               `json:"notes,omitempty"`
	Timestamps    Timestamps           `json:"timestamps"`
	Rating        *Rating              `json:"rating,omitempty"`

	PendingAction Action       `json:"pendingAction,omitempty"`
	RatingPrompt  RatingPrompt `json:"ratingPrompt"`
	Fatal         Fatal        `json:"fatal,omitempty"`
}

func NewReadModel(r Ride, currency string) ReadModel {
	return ReadModel{
		RideID:            r.ID,
		Status:            r.Status,
		StatusLabel:       r.Status.Label(),
		StatusColor:       r.Status.Color(),
		AllowedActions:    AllowedActions(r),
		FareBreakdownRows: pricing.BreakdownRows(r.Fare, currency),
		TimelineSteps:     Timeline(r),
		Pickup:            r.Pickup,
		Destination:       r.Destination,
		Driver:            r.Driver,
		Fare:              r.Fare,
		PaymentMethod:     r.PaymentMethod,
		Passengers:        r.Passengers,
		Notes:             r.Notes,
		Timestamps:        r.Timestamps,
		Rating:            r.Rating,
	}
}

// Ride rebuilds the ride the read-model was derived from.
func (m ReadModel) Ride() Ride {
	return Ride{
		ID:            m.RideID,
		Status:        m.Status,
		Pickup:        m.Pickup,
		Destination:   m.Destination,
		Driver:        m.Driver,
		Fare:          m.Fare,
		PaymentMethod: m.PaymentMethod,
		Passengers:    m.Passengers,
		Notes:         m.Notes,
		Timestamps:    m.Timestamps,
		Rating:        m.Rating,
	}
}
