package models

// GeoPoint is a latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `bson:"latitude" json:"latitude" firestore:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude" firestore:"longitude"`
}

// Valid reports whether the point lies inside the WGS84 range.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}
