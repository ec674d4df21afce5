// README: Pure geographic helpers shared by resolution and request validation.
package types

import "math"

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two locations.
func DistanceKm(a, b Location) float64 {
	return haversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// SortByDistance orders locations nearest-first from origin. Insertion
// sort; result lists are small.
func SortByDistance(items []Location, origin Location) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		kd := DistanceKm(origin, key)
		j := i - 1
		for j >= 0 && DistanceKm(origin, items[j]) > kd {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
