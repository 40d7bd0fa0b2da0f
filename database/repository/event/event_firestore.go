package eventRepo

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"sportevents/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreEventRepo implements EventRepository on Cloud Firestore.
// Bookings use the document id "<eventID>_<userID>" so a pair can only exist once.
// Monthly markers live at monthly_unique_bookers/<yyyyMM>/users/<userID>.
type FirestoreEventRepo struct {
	client *firestore.Client
}

// NewFirestoreEventRepo wraps an open Firestore client.
func NewFirestoreEventRepo(client *firestore.Client) *FirestoreEventRepo {
	return &FirestoreEventRepo{client: client}
}

// BookingDocID returns the deterministic booking document id for a pair.
func BookingDocID(eventID, userID string) string {
	return eventID + "_" + userID
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// Ping reads a sentinel document; NotFound still proves the backend answered.
func (r *FirestoreEventRepo) Ping(ctx context.Context) error {
	_, err := r.client.Collection(SportCountsCollection).Doc("_ping").Get(ctx)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// eventDoc is the stored shape of an event. venueid and organizerid hold
// document references to venues/<id> and users/<id>; plain string ids are
// read too.
type eventDoc struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	Sport       string    `firestore:"sport"`
	SkillLevel  string    `firestore:"skill_level"`
	StartTime   time.Time `firestore:"start_time"`
	EndTime     time.Time `firestore:"end_time"`
	MaxCapacity int       `firestore:"max_capacity"`
	Booked      int       `firestore:"booked"`
	VenueID     any       `firestore:"venueid"`
	OrganizerID any       `firestore:"organizerid"`
}

func (d eventDoc) toEvent(id string) models.Event {
	return models.Event{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Sport:       d.Sport,
		SkillLevel:  d.SkillLevel,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		MaxCapacity: d.MaxCapacity,
		Booked:      d.Booked,
		VenueID:     refID(d.VenueID),
		OrganizerID: refID(d.OrganizerID),
	}
}

// refID returns the document id behind a reference field.
func refID(v any) string {
	switch ref := v.(type) {
	case *firestore.DocumentRef:
		if ref == nil {
			return ""
		}
		return ref.ID
	case string:
		return path.Base(ref)
	default:
		return ""
	}
}

func (r *FirestoreEventRepo) docRef(collection, id string) any {
	if id == "" {
		return nil
	}
	return r.client.Collection(collection).Doc(id)
}

func (r *FirestoreEventRepo) newEventDoc(e *models.Event) eventDoc {
	return eventDoc{
		Name:        e.Name,
		Description: e.Description,
		Sport:       e.Sport,
		SkillLevel:  e.SkillLevel,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		MaxCapacity: e.MaxCapacity,
		Booked:      e.Booked,
		VenueID:     r.docRef(VenuesCollection, e.VenueID),
		OrganizerID: r.docRef(UsersCollection, e.OrganizerID),
	}
}

func decodeEvent(snap *firestore.DocumentSnapshot) (models.Event, error) {
	var doc eventDoc
	if err := snap.DataTo(&doc); err != nil {
		return models.Event{}, fmt.Errorf("failed to decode event %s: %w", snap.Ref.ID, err)
	}
	return doc.toEvent(snap.Ref.ID), nil
}

func decodeEvents(snaps []*firestore.DocumentSnapshot) ([]models.Event, error) {
	events := make([]models.Event, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		event, err := decodeEvent(snap)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *FirestoreEventRepo) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	snap, err := r.client.Collection(EventsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch event with id %s: %w", id, err)
	}
	event, err := decodeEvent(snap)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *FirestoreEventRepo) ListEvents(ctx context.Context) ([]models.Event, error) {
	snaps, err := r.client.Collection(EventsCollection).
		OrderBy("start_time", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return decodeEvents(snaps)
}

func (r *FirestoreEventRepo) ListEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.client.Collection(EventsCollection).Doc(id))
	}
	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events by id: %w", err)
	}
	return decodeEvents(snaps)
}

// ListEventsBySports uses an "in" filter, which Firestore caps at 30 values.
func (r *FirestoreEventRepo) ListEventsBySports(ctx context.Context, sports []string, limit int) ([]models.Event, error) {
	if len(sports) == 0 {
		return []models.Event{}, nil
	}
	if len(sports) > 30 {
		sports = sports[:30]
	}
	q := r.client.Collection(EventsCollection).Where("sport", "in", sports)
	if limit > 0 {
		q = q.Limit(limit)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query events by sport: %w", err)
	}
	return decodeEvents(snaps)
}

func (r *FirestoreEventRepo) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	snaps, err := r.client.Collection(EventsCollection).
		Where("organizerid", "==", r.client.Collection(UsersCollection).Doc(organizerID)).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query events for organizer %s: %w", organizerID, err)
	}
	return decodeEvents(snaps)
}

func (r *FirestoreEventRepo) InsertEvent(ctx context.Context, event *models.Event) error {
	coll := r.client.Collection(EventsCollection)
	ref := coll.NewDoc()
	if event.ID != "" {
		ref = coll.Doc(event.ID)
	}
	if _, err := ref.Create(ctx, r.newEventDoc(event)); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	event.ID = ref.ID
	return nil
}

func (r *FirestoreEventRepo) UpdateEvent(ctx context.Context, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		if !UpdatableEventFields[k] {
			return fmt.Errorf("field %q cannot be updated", k)
		}
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	if len(updates) == 0 {
		return fmt.Errorf("no updatable fields provided")
	}

	if _, err := r.client.Collection(EventsCollection).Doc(id).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update event %s: %w", id, err)
	}
	return nil
}

func (r *FirestoreEventRepo) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	snap, err := r.client.Collection(VenuesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch venue with id %s: %w", id, err)
	}
	var venue models.Venue
	if err := snap.DataTo(&venue); err != nil {
		return nil, fmt.Errorf("failed to decode venue %s: %w", id, err)
	}
	venue.ID = snap.Ref.ID
	return &venue, nil
}

func (r *FirestoreEventRepo) ListVenues(ctx context.Context) ([]models.Venue, error) {
	iter := r.client.Collection(VenuesCollection).Documents(ctx)
	defer iter.Stop()

	venues := []models.Venue{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query venues: %w", err)
		}
		var venue models.Venue
		if err := snap.DataTo(&venue); err != nil {
			return nil, fmt.Errorf("failed to decode venue %s: %w", snap.Ref.ID, err)
		}
		venue.ID = snap.Ref.ID
		venues = append(venues, venue)
	}
	return venues, nil
}

func (r *FirestoreEventRepo) ListSports(ctx context.Context) ([]string, error) {
	refs, err := r.client.Collection(SportCountsCollection).DocumentRefs(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}
	sports := make([]string, 0, len(refs))
	for _, ref := range refs {
		sports = append(sports, ref.ID)
	}
	return sports, nil
}

func (r *FirestoreEventRepo) FindBooking(ctx context.Context, eventID, userID string) (*models.Booking, error) {
	snap, err := r.client.Collection(BookingsCollection).Doc(BookingDocID(eventID, userID)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking for event %s: %w", eventID, err)
	}
	var booking models.Booking
	if err := snap.DataTo(&booking); err != nil {
		return nil, fmt.Errorf("failed to decode booking %s: %w", snap.Ref.ID, err)
	}
	booking.ID = snap.Ref.ID
	return &booking, nil
}

func (r *FirestoreEventRepo) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	snaps, err := r.client.Collection(BookingsCollection).Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings for user %s: %w", userID, err)
	}
	bookings := make([]models.Booking, 0, len(snaps))
	for _, snap := range snaps {
		var booking models.Booking
		if err := snap.DataTo(&booking); err != nil {
			return nil, fmt.Errorf("failed to decode booking %s: %w", snap.Ref.ID, err)
		}
		booking.ID = snap.Ref.ID
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

// BookSeat performs every read before the first write, as Firestore transactions require.
func (r *FirestoreEventRepo) BookSeat(ctx context.Context, booking *models.Booking, month string) error {
	eventRef := r.client.Collection(EventsCollection).Doc(booking.EventID)
	bookingRef := r.client.Collection(BookingsCollection).Doc(BookingDocID(booking.EventID, booking.UserID))
	markerRef := r.client.Collection(MonthlyUniqueBookersCollection).Doc(month).Collection("users").Doc(booking.UserID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		eventSnap, err := tx.Get(eventRef)
		if err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("read event failed: %w", err)
		}
		event, err := decodeEvent(eventSnap)
		if err != nil {
			return err
		}
		if event.IsFull() {
			return ErrEventFull
		}

		if _, err := tx.Get(bookingRef); err == nil {
			return ErrAlreadyBooked
		} else if !isNotFound(err) {
			return fmt.Errorf("duplicate check failed: %w", err)
		}

		markerExists := true
		if _, err := tx.Get(markerRef); err != nil {
			if !isNotFound(err) {
				return fmt.Errorf("read monthly marker failed: %w", err)
			}
			markerExists = false
		}

		if err := tx.Create(bookingRef, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		if err := tx.Update(eventRef, []firestore.Update{{Path: "booked", Value: firestore.Increment(1)}}); err != nil {
			return fmt.Errorf("increment booked failed: %w", err)
		}
		if !markerExists {
			marker := map[string]any{"first_booking_at": firestore.ServerTimestamp}
			if err := tx.Set(markerRef, marker, firestore.MergeAll); err != nil {
				return fmt.Errorf("mark monthly booker failed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("booking transaction failed: %w", err)
	}
	booking.ID = bookingRef.ID
	return nil
}

func (r *FirestoreEventRepo) CancelSeat(ctx context.Context, booking *models.Booking) error {
	eventRef := r.client.Collection(EventsCollection).Doc(booking.EventID)
	bookingRef := r.client.Collection(BookingsCollection).Doc(BookingDocID(booking.EventID, booking.UserID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(bookingRef); err != nil {
			if isNotFound(err) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("read booking failed: %w", err)
		}
		eventSnap, err := tx.Get(eventRef)
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("read event failed: %w", err)
		}

		if err := tx.Delete(bookingRef); err != nil {
			return fmt.Errorf("delete booking failed: %w", err)
		}
		if eventSnap != nil && eventSnap.Exists() {
			if booked, _ := eventSnap.DataAt("booked"); toInt(booked) > 0 {
				if err := tx.Update(eventRef, []firestore.Update{{Path: "booked", Value: firestore.Increment(-1)}}); err != nil {
					return fmt.Errorf("decrement booked failed: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cancel transaction failed: %w", err)
	}
	return nil
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
