package events

import (
	"math"

	"sportevents/models"
)

const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FilterNearby keeps the events within radiusMeters of point, in order.
// Events without a location never match.
func FilterNearby(events []models.Event, point models.GeoPoint, radiusMeters float64) []models.Event {
	nearby := []models.Event{}
	for _, e := range events {
		if !e.HasLocation() {
			continue
		}
		if Distance(point, *e.Location) <= radiusMeters {
			nearby = append(nearby, e)
		}
	}
	return nearby
}
