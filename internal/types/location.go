// README: Selected location value object (pickup / destination).
package types

import "strings"

// Location is immutable once selected by the user.
type Location struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceID   string  `json:"placeId,omitempty"`
}

// Resolved reports whether the location carries an address and non-zero coordinates.
func (l Location) Resolved() bool {
	return strings.TrimSpace(l.Address) != "" && l.Latitude != 0 && l.Longitude != 0
}

// SameAddress is the equality used for recently-used de-duplication.
func (l Location) SameAddress(o Location) bool {
	return strings.EqualFold(strings.TrimSpace(l.Address), strings.TrimSpace(o.Address))
}

// SameRoute reports whether two pickup/destination pairs describe the same route.
func SameRoute(pickupA, destA, pickupB, destB Location) bool {
	return pickupA == pickupB && destA == destB
}
