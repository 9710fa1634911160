package geo

import (
	"math"

	"runmatch/pkg/types"
)

const earthRadiusMeters = 6371000

// Distance returns the great-circle distance between two points in
// meters (haversine). Every distance the engine compares goes through
// this one function so the metric stays consistent across calls.
func Distance(a, b types.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
