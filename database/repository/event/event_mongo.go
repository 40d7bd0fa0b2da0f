package eventRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportevents/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEventRepo implements EventRepository using MongoDB.
type MongoEventRepo struct {
	client      *mongo.Client
	events      *mongo.Collection
	venues      *mongo.Collection
	bookings    *mongo.Collection
	markers     *mongo.Collection
	sportCounts *mongo.Collection
}

// NewMongoEventRepo creates a MongoEventRepo over db and makes sure its indexes exist.
func NewMongoEventRepo(db *mongo.Database) (*MongoEventRepo, error) {
	repo := &MongoEventRepo{
		client:      db.Client(),
		events:      db.Collection(EventsCollection),
		venues:      db.Collection(VenuesCollection),
		bookings:    db.Collection(BookingsCollection),
		markers:     db.Collection(MonthlyUniqueBookersCollection),
		sportCounts: db.Collection(SportCountsCollection),
	}
	if err := repo.ensureIndexes(); err != nil {
		return repo, err
	}
	return repo, nil
}

// newContext derives a per-call timeout from the caller's context.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates the lookup indexes and the uniqueness constraints
// that back one booking per (event, user) and one marker per (month, user).
func (r *MongoEventRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "sport", Value: 1}}},
		{Keys: bson.D{{Key: "organizer_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create event indexes: %w", err)
	}

	if _, err := r.venues.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create venue indexes: %w", err)
	}

	if _, err := r.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	if _, err := r.markers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "month", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create marker indexes: %w", err)
	}
	return nil
}

// Ping reports whether the server answers. It backs the connectivity gate.
func (r *MongoEventRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoEventRepo) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var event models.Event
	if err := r.events.FindOne(ctx, bson.M{"id": id}).Decode(&event); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch event with id %s: %w", id, err)
	}
	return &event, nil
}

func (r *MongoEventRepo) ListEvents(ctx context.Context) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	return r.findEvents(ctx, bson.M{}, opts)
}

func (r *MongoEventRepo) ListEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	return r.findEvents(ctx, bson.M{"id": bson.M{"$in": ids}}, opts)
}

func (r *MongoEventRepo) ListEventsBySports(ctx context.Context, sports []string, limit int) ([]models.Event, error) {
	if len(sports) == 0 {
		return []models.Event{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.findEvents(ctx, bson.M{"sport": bson.M{"$in": sports}}, opts)
}

func (r *MongoEventRepo) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	return r.findEvents(ctx, bson.M{"organizer_id": organizerID}, opts)
}

func (r *MongoEventRepo) findEvents(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Event, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.events.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

func (r *MongoEventRepo) InsertEvent(ctx context.Context, event *models.Event) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if _, err := r.events.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event %s: %w", event.ID, err)
	}
	return nil
}

func (r *MongoEventRepo) UpdateEvent(ctx context.Context, id string, fields map[string]any) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{}
	for k, v := range fields {
		if !UpdatableEventFields[k] {
			return fmt.Errorf("field %q cannot be updated", k)
		}
		set[k] = v
	}
	if len(set) == 0 {
		return fmt.Errorf("no updatable fields provided")
	}

	res, err := r.events.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoEventRepo) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var venue models.Venue
	if err := r.venues.FindOne(ctx, bson.M{"id": id}).Decode(&venue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch venue with id %s: %w", id, err)
	}
	return &venue, nil
}

func (r *MongoEventRepo) ListVenues(ctx context.Context) ([]models.Venue, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.venues.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer cursor.Close(ctx)

	venues := []models.Venue{}
	if err := cursor.All(ctx, &venues); err != nil {
		return nil, fmt.Errorf("failed to decode venues: %w", err)
	}
	return venues, nil
}

// ListSports returns the _id of every sport_counts document.
func (r *MongoEventRepo) ListSports(ctx context.Context) ([]string, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	values, err := r.sportCounts.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}
	sports := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			sports = append(sports, s)
		}
	}
	return sports, nil
}
