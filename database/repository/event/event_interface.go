package eventRepo

import (
	"context"
	"errors"

	"sportevents/models"
)

// Collection names shared by every backend.
const (
	EventsCollection               = "events"
	VenuesCollection               = "venues"
	BookingsCollection             = "bookings"
	MonthlyUniqueBookersCollection = "monthly_unique_bookers"
	SportCountsCollection          = "sport_counts"
	UsersCollection                = "users"
)

var (
	// ErrNotFound is returned when an event or venue does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrEventFull is returned by BookSeat when booked >= max_capacity.
	ErrEventFull = errors.New("event is full")
	// ErrAlreadyBooked is returned by BookSeat when the user already holds a booking for the event.
	ErrAlreadyBooked = errors.New("already booked")
	// ErrBookingNotFound is returned by CancelSeat when the booking no longer exists.
	ErrBookingNotFound = errors.New("booking not found")
)

// UpdatableEventFields lists the event fields UpdateEvent accepts. Keys are stored names.
var UpdatableEventFields = map[string]bool{
	"name":         true,
	"description":  true,
	"sport":        true,
	"skill_level":  true,
	"start_time":   true,
	"end_time":     true,
	"max_capacity": true,
}

// EventRepository is the persistence port behind the event repository service.
type EventRepository interface {
	// GetEvent returns the event with the given id or ErrNotFound.
	GetEvent(ctx context.Context, id string) (*models.Event, error)

	// ListEvents returns all events ordered by start time ascending.
	ListEvents(ctx context.Context) ([]models.Event, error)

	// ListEventsByIDs returns the events whose ids are given. Missing ids are skipped.
	ListEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error)

	// ListEventsBySports returns at most limit events whose sport is one of sports.
	ListEventsBySports(ctx context.Context, sports []string, limit int) ([]models.Event, error)

	// ListEventsByOrganizer returns the events posted by an organizer.
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error)

	// InsertEvent stores a new event. An empty ID is assigned by the store.
	InsertEvent(ctx context.Context, event *models.Event) error

	// UpdateEvent sets the given fields on an event or returns ErrNotFound.
	UpdateEvent(ctx context.Context, id string, fields map[string]any) error

	// GetVenue returns the venue with the given id or ErrNotFound.
	GetVenue(ctx context.Context, id string) (*models.Venue, error)

	// ListVenues returns all venues.
	ListVenues(ctx context.Context) ([]models.Venue, error)

	// ListSports returns the known sport tags.
	ListSports(ctx context.Context) ([]string, error)

	// FindBooking returns the booking for (eventID, userID), or nil when there is none.
	FindBooking(ctx context.Context, eventID, userID string) (*models.Booking, error)

	// ListBookingsByUser returns all bookings held by a user.
	ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)

	// BookSeat atomically inserts the booking, increments the event's booked
	// counter and marks the user as a unique booker for month ("yyyyMM").
	// It fails with ErrNotFound, ErrEventFull or ErrAlreadyBooked without writing anything.
	BookSeat(ctx context.Context, booking *models.Booking, month string) error

	// CancelSeat atomically deletes the booking and decrements the event's booked counter.
	CancelSeat(ctx context.Context, booking *models.Booking) error
}
