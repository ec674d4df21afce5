package ai

// RideDraft is the structured output of the model for one free-text request.
type RideDraft struct {
	// Destination is where the user wants to go; nil when not stated.
	Destination *string `json:"destination"`

	// Pickup is the stated origin; nil means "use the current location".
	Pickup *string `json:"pickup"`

	// Passengers defaults to 1.
	Passengers int `json:"passengers"`

	// RideClass is economy, premium or luxury when the user asked for one.
	RideClass string `json:"ride_class,omitempty"`

	// PickupTime is an RFC3339 timestamp for scheduled rides, nil for now.
	PickupTime *string `json:"pickup_time"`

	Notes string `json:"notes,omitempty"`

	// Reply is a short message for the user, e.g. a clarifying question.
	Reply string `json:"reply"`
}
