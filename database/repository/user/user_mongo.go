package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportevents/database/stream"
	"sportevents/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) (*MongoUserRepo, error) {
	repo := &MongoUserRepo{coll: db.Collection(UsersCollection)}
	if err := repo.ensureIndexes(); err != nil {
		return repo, err
	}
	return repo, nil
}

// newContext creates a context with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoUserRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	return &user, nil
}

func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	return nil
}

func (r *MongoUserRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Watch emits the current document, then every change delivered by a change
// stream with full-document lookup. Change streams need a replica set.
func (r *MongoUserRepo) Watch(ctx context.Context, id string) (stream.Subscription[models.User], error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "fullDocument.id", Value: id},
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "update", "replace"}}}},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := r.coll.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to watch user %s: %w", id, err)
	}

	first := current
	next := func(ctx context.Context) (*models.User, error) {
		if first != nil {
			u := first
			first = nil
			return u, nil
		}
		if !cs.Next(ctx) {
			if err := cs.Err(); err != nil {
				return nil, fmt.Errorf("user change stream failed: %w", err)
			}
			return nil, stream.ErrDone
		}
		var change struct {
			FullDocument models.User `bson:"fullDocument"`
		}
		if err := cs.Decode(&change); err != nil {
			return nil, fmt.Errorf("failed to decode user change: %w", err)
		}
		return &change.FullDocument, nil
	}
	release := func() error {
		closeCtx, cancel := newContext(context.Background(), 5*time.Second)
		defer cancel()
		return cs.Close(closeCtx)
	}
	return stream.Start(ctx, next, release), nil
}
