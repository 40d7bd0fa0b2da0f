package events

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	eventRepo "sportevents/database/repository/event"
	"sportevents/models"
)

// fakeRepo is an in-memory EventRepository. BookSeat and CancelSeat run
// under one lock so they behave like store transactions.
type fakeRepo struct {
	mu       sync.Mutex
	events   map[string]models.Event
	order    []string
	venues   map[string]models.Venue
	bookings map[string]models.Booking
	markers  map[string]models.MonthlyUniqueBooker
	sports   []string

	listErr     error
	venueErr    error
	getErr      error
	bookingsErr error
	idsErr      error

	calls      atomic.Int32
	venueCalls atomic.Int32
	nextID     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events:   map[string]models.Event{},
		venues:   map[string]models.Venue{},
		bookings: map[string]models.Booking{},
		markers:  map[string]models.MonthlyUniqueBooker{},
	}
}

func (f *fakeRepo) addEvent(e models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[e.ID]; !ok {
		f.order = append(f.order, e.ID)
	}
	f.events[e.ID] = e
}

func (f *fakeRepo) addVenue(v models.Venue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.venues[v.ID] = v
}

func (f *fakeRepo) event(id string) models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id]
}

func (f *fakeRepo) bookingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

func bookingKeyOf(eventID, userID string) string { return eventID + "_" + userID }

func (f *fakeRepo) GetEvent(_ context.Context, id string) (*models.Event, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.events[id]
	if !ok {
		return nil, eventRepo.ErrNotFound
	}
	return &e, nil
}

func (f *fakeRepo) ListEvents(context.Context) ([]models.Event, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Event, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.events[id])
	}
	return out, nil
}

func (f *fakeRepo) ListEventsByIDs(_ context.Context, ids []string) ([]models.Event, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	out := []models.Event{}
	for _, id := range f.order {
		if slices.Contains(ids, id) {
			out = append(out, f.events[id])
		}
	}
	return out, nil
}

func (f *fakeRepo) ListEventsBySports(_ context.Context, sports []string, limit int) ([]models.Event, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Event{}
	for _, id := range f.order {
		if slices.Contains(sports, f.events[id].Sport) {
			out = append(out, f.events[id])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) ListEventsByOrganizer(_ context.Context, organizerID string) ([]models.Event, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Event{}
	for _, id := range f.order {
		if f.events[id].OrganizerID == organizerID {
			out = append(out, f.events[id])
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertEvent(_ context.Context, e *models.Event) error {
	f.calls.Add(1)
	f.mu.Lock()
	if e.ID == "" {
		f.nextID++
		e.ID = fmt.Sprintf("gen-%d", f.nextID)
	}
	f.mu.Unlock()
	f.addEvent(*e)
	return nil
}

func (f *fakeRepo) UpdateEvent(_ context.Context, id string, fields map[string]any) error {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return eventRepo.ErrNotFound
	}
	if v, ok := fields["name"].(string); ok {
		e.Name = v
	}
	if v, ok := fields["max_capacity"].(int); ok {
		e.MaxCapacity = v
	}
	if v, ok := fields["start_time"].(time.Time); ok {
		e.StartTime = v
	}
	if v, ok := fields["end_time"].(time.Time); ok {
		e.EndTime = v
	}
	f.events[id] = e
	return nil
}

func (f *fakeRepo) GetVenue(_ context.Context, id string) (*models.Venue, error) {
	f.calls.Add(1)
	f.venueCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.venueErr != nil {
		return nil, f.venueErr
	}
	v, ok := f.venues[id]
	if !ok {
		return nil, eventRepo.ErrNotFound
	}
	return &v, nil
}

func (f *fakeRepo) ListVenues(context.Context) ([]models.Venue, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Venue{}
	for _, v := range f.venues {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeRepo) ListSports(context.Context) ([]string, error) {
	f.calls.Add(1)
	return f.sports, nil
}

func (f *fakeRepo) FindBooking(_ context.Context, eventID, userID string) (*models.Booking, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingKeyOf(eventID, userID)]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f *fakeRepo) ListBookingsByUser(_ context.Context, userID string) ([]models.Booking, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookingsErr != nil {
		return nil, f.bookingsErr
	}
	out := []models.Booking{}
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) BookSeat(_ context.Context, b *models.Booking, month string) error {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[b.EventID]
	if !ok {
		return eventRepo.ErrNotFound
	}
	if e.IsFull() {
		return eventRepo.ErrEventFull
	}
	key := bookingKeyOf(b.EventID, b.UserID)
	if _, exists := f.bookings[key]; exists {
		return eventRepo.ErrAlreadyBooked
	}
	b.ID = key
	f.bookings[key] = *b
	e.Booked++
	f.events[b.EventID] = e
	markerKey := month + "_" + b.UserID
	if _, exists := f.markers[markerKey]; !exists {
		f.markers[markerKey] = models.MonthlyUniqueBooker{Month: month, UserID: b.UserID, FirstBookingAt: b.CreatedAt}
	}
	return nil
}

func (f *fakeRepo) CancelSeat(_ context.Context, b *models.Booking) error {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	key := bookingKeyOf(b.EventID, b.UserID)
	if _, ok := f.bookings[key]; !ok {
		return eventRepo.ErrBookingNotFound
	}
	delete(f.bookings, key)
	if e, ok := f.events[b.EventID]; ok && e.Booked > 0 {
		e.Booked--
		f.events[b.EventID] = e
	}
	return nil
}

var errBoom = errors.New("boom")

var _ eventRepo.EventRepository = (*fakeRepo)(nil)
