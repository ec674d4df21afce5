// README: Ride request builder: validates the booking form into a create-ride request.
package booking

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ridebook/internal/backend"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/modules/ride"
	"ridebook/internal/types"
)

const (
	MinPassengers    = 1
	MaxPassengers    = 4
	MaxNotesLength   = 500
	MaxScheduleAhead = 7 * 24 * time.Hour
)

// Form is what the user has entered so far.
type Form struct {
	Pickup        types.Location     `json:"pickup"`
	Destination   types.Location     `json:"destination"`
	RideClass     pricing.RideClass  `json:"rideClass"`
	PaymentMethod ride.PaymentMethod `json:"paymentMethod"`
	Passengers    int                `json:"passengers"`
	Notes         string             `json:"notes,omitempty"`
	ScheduledTime *time.Time         `json:"scheduledTime,omitempty"`
}

// Request is a validated create-ride request.
type Request struct {
	Pickup        types.Location
	Destination   types.Location
	RideClass     pricing.RideClass
	PaymentMethod ride.PaymentMethod
	Passengers    int
	Notes         string
	ScheduledTime *time.Time
}

func (r Request) DTO() backend.CreateRideRequest {
	return backend.CreateRideRequest{
		Pickup:        backend.LocationToDTO(r.Pickup),
		Destination:   backend.LocationToDTO(r.Destination),
		RideClass:     string(r.RideClass),
		PaymentMethod: string(r.PaymentMethod),
		Passengers:    r.Passengers,
		Notes:         r.Notes,
		ScheduledTime: r.ScheduledTime,
	}
}

// ValidationError maps form field names to problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "invalid ride request: " + strings.Join(parts, "; ")
}

type formRules struct {
	Pickup        string `json:"pickup" validate:"required"`
	Destination   string `json:"destination" validate:"required"`
	RideClass     string `json:"rideClass" validate:"required,oneof=economy premium luxury"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash card wallet"`
	Notes         string `json:"notes" validate:"max=500"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Build validates f. Passengers are clamped to [1,4] rather than rejected.
func Build(f Form) (Request, error) {
	return build(f, time.Now())
}

func build(f Form, now time.Time) (Request, error) {
	notes := strings.TrimSpace(f.Notes)
	rules := formRules{
		Pickup:        strings.TrimSpace(f.Pickup.Address),
		Destination:   strings.TrimSpace(f.Destination.Address),
		RideClass:     string(f.RideClass),
		PaymentMethod: string(f.PaymentMethod),
		Notes:         notes,
	}

	fields := map[string]string{}
	if err := validate.Struct(rules); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return Request{}, err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
	}
	if f.ScheduledTime != nil {
		switch {
		case !f.ScheduledTime.After(now):
			fields["scheduledTime"] = "must be in the future"
		case f.ScheduledTime.Sub(now) > MaxScheduleAhead:
			fields["scheduledTime"] = "must be within 7 days"
		}
	}
	if len(fields) > 0 {
		return Request{}, &ValidationError{Fields: fields}
	}

	req := Request{
		Pickup:        f.Pickup,
		Destination:   f.Destination,
		RideClass:     f.RideClass,
		PaymentMethod: f.PaymentMethod,
		Passengers:    ClampPassengers(f.Passengers),
		Notes:         notes,
	}
	if f.ScheduledTime != nil {
		t := f.ScheduledTime.UTC()
		req.ScheduledTime = &t
	}
	return req, nil
}

func ClampPassengers(n int) int {
	if n < MinPassengers {
		return MinPassengers
	}
	if n > MaxPassengers {
		return MaxPassengers
	}
	return n
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
