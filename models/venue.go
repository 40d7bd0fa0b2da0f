package models

// Venue is a place where events are held.
type Venue struct {
	ID           string  `bson:"id" json:"id" firestore:"-"`
	Name         string  `bson:"name" json:"name" firestore:"name"`
	Latitude     float64 `bson:"latitude" json:"latitude" firestore:"latitude"`
	Longitude    float64 `bson:"longitude" json:"longitude" firestore:"longitude"`
	Capacity     int     `bson:"capacity" json:"capacity" firestore:"capacity"`
	BookingCount int     `bson:"booking_count" json:"bookingCount" firestore:"booking_count"`
}

// Point returns the venue coordinate.
func (v Venue) Point() GeoPoint {
	return GeoPoint{Latitude: v.Latitude, Longitude: v.Longitude}
}
