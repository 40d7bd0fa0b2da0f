package events

import (
	"context"

	"sportevents/models"
)

// EventService is the event repository façade: the single entry point for
// event reads, bookings and the caches behind them.
type EventService interface {
	GetAllEvents(ctx context.Context) Result
	GetNearbyEvents(ctx context.Context, point models.GeoPoint, radiusMeters float64) Result
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, id string, fields map[string]any) (*models.Event, error)

	CreateBooking(ctx context.Context, eventID, userID string) error
	CancelBooking(ctx context.Context, eventID, userID string) error
	HasBooking(ctx context.Context, eventID, userID string) (bool, error)
	PopulateUserBookings(ctx context.Context, userID string) error
	ClearBookingCache(userID string)
	GetReservedEvents(ctx context.Context, userID string) Result

	GetVenues(ctx context.Context) ([]models.Venue, error)
	GetSports(ctx context.Context) ([]string, error)
	GetSkillLevels() []string
	GetPostedEvents(ctx context.Context, organizerID string) ([]models.Event, error)
	GetRecommendedEvents(ctx context.Context, sports []string, limit int) ([]models.Event, error)
	SearchEvents(ctx context.Context, query models.EventSearch) Result
}

// SearchIndex is a full-text index over events.
type SearchIndex interface {
	IndexEvent(ctx context.Context, event models.Event) error
	Search(ctx context.Context, query models.EventSearch) ([]models.Event, error)
}
