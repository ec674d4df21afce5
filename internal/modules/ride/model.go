// README: Ride aggregate and status definitions.
package ride

import (
	"errors"
	"time"

	"ridebook/internal/modules/pricing"
	"ridebook/internal/types"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusAccepted       Status = "accepted"
	StatusDriverArriving Status = "driver-arriving"
	StatusInProgress     Status = "in-progress"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// Steps is the non-cancelled path, in order.
var Steps = []Status{StatusPending, StatusAccepted, StatusDriverArriving, StatusInProgress, StatusCompleted}

// AllowedTransitions represents the ride state flow (diagram) as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:        {StatusAccepted, StatusCancelled},
	StatusAccepted:       {StatusDriverArriving, StatusCancelled},
	StatusDriverArriving: {StatusInProgress, StatusCancelled},
	StatusInProgress:     {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusCancelled || s.rank() >= 0
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// rank is the index on the non-cancelled path, or -1.
func (s Status) rank() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentWallet PaymentMethod = "wallet"
)

type DriverSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone,omitempty"`
	VehicleModel string  `json:"vehicleModel,omitempty"`
	VehiclePlate string  `json:"vehiclePlate,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
}

// Timestamps are set-once; see Merge.
type Timestamps struct {
	Requested      *time.Time `json:"requested,omitempty"`
	Accepted       *time.Time `json:"accepted,omitempty"`
	DriverArriving *time.Time `json:"driverArriving,omitempty"`
	PickupTime     *time.Time `json:"pickupTime,omitempty"`
	DropoffTime    *time.Time `json:"dropoffTime,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
}

// For returns the timestamp recorded when the ride reached step.
func (ts Timestamps) For(step Status) *time.Time {
	switch step {
	case StatusPending:
		return ts.Requested
	case StatusAccepted:
		return ts.Accepted
	case StatusDriverArriving:
		return ts.DriverArriving
	case StatusInProgress:
		return ts.PickupTime
	case StatusCompleted:
		return ts.DropoffTime
	case StatusCancelled:
		return ts.CancelledAt
	}
	return nil
}

type Rating struct {
	Value   int    `json:"value"`
	Comment string `json:"comment,omitempty"`
}

type Ride struct {
	ID            types.ID             `json:"id"`
	Status        Status               `json:"status"`
	Pickup        types.Location       `json:"pickupLocation"`
	Destination   types.Location       `json:"destinationLocation"`
	Driver        *DriverSummary       `json:"driver,omitempty"`
	Fare          pricing.FareEstimate `json:"fare"`
	PaymentMethod PaymentMethod        `json:"paymentMethod"`
	Passengers    int                  `json:"passengers"`
	Notes         string               `json:"notes,omitempty"`
	Timestamps    Timestamps           `json:"timestamps"`
	Rating        *Rating              `json:"rating,omitempty"`
}

// Event is one observed status change, as written to the journal.
type Event struct {
	ID         string
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	Source     string
	CreatedAt  time.Time
}

const (
	SourceSync   = "sync"
	SourceCancel = "cancel"
	SourceRate   = "rate"
)

var (
	ErrNotFound         = errors.New("ride not found")
	ErrActionNotAllowed = errors.New("action not allowed in current ride state")
	ErrActionInFlight   = errors.New("another action is in flight")
	ErrInvalidRating    = errors.New("invalid rating")
	ErrNotLoaded        = errors.New("ride not loaded")
)
