package models

import "time"

// Event is a sports event hosted at a venue.
// Location is filled by venue enrichment and never persisted on the event document.
type Event struct {
	ID          string    `bson:"id" json:"id" firestore:"-"`
	Name        string    `bson:"name" json:"name" firestore:"name"`
	Description string    `bson:"description" json:"description" firestore:"description"`
	Sport       string    `bson:"sport" json:"sport" firestore:"sport"`
	SkillLevel  string    `bson:"skill_level" json:"skillLevel" firestore:"skill_level"`
	StartTime   time.Time `bson:"start_time" json:"startTime" firestore:"start_time"`
	EndTime     time.Time `bson:"end_time" json:"endTime" firestore:"end_time"`
	MaxCapacity int       `bson:"max_capacity" json:"maxCapacity" firestore:"max_capacity"`
	Booked      int       `bson:"booked" json:"booked" firestore:"booked"`
	VenueID     string    `bson:"venue_id" json:"venueId" firestore:"venueid"`
	OrganizerID string    `bson:"organizer_id" json:"organizerId" firestore:"organizerid"`

	Location *GeoPoint `bson:"-" json:"location,omitempty" firestore:"-"`
}

// HasLocation reports whether enrichment attached a coordinate.
func (e Event) HasLocation() bool {
	return e.Location != nil
}

// IsFull reports whether no seat is left.
func (e Event) IsFull() bool {
	return e.Booked >= e.MaxCapacity
}

// SkillLevels are the fixed skill tags an event can carry.
var SkillLevels = []string{"Rookie", "Amateur", "Mid-Level", "Pro"}

// EventSearch filters events by free text, sport and skill level. Empty fields match everything.
type EventSearch struct {
	Query      string `form:"q" json:"q"`
	Sport      string `form:"sport" json:"sport"`
	SkillLevel string `form:"skill" json:"skill"`
}
