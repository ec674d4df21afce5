package backend

import "ridebook/internal/types"

func LocationToDTO(l types.Location) LocationDTO {
	lat, lng := l.Latitude, l.Longitude
	return LocationDTO{Address: l.Address, Latitude: &lat, Longitude: &lng, PlaceID: l.PlaceID}
}

// Location converts a decoded DTO; callers must only use it on validated values.
func (d LocationDTO) Location() types.Location {
	l := types.Location{Address: d.Address, PlaceID: d.PlaceID}
	if d.Latitude != nil {
		l.Latitude = *d.Latitude
	}
	if d.Longitude != nil {
		l.Longitude = *d.Longitude
	}
	return l
}
