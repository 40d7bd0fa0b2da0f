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

func (r *MongoEventRepo) FindBooking(ctx context.Context, eventID, userID string) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := r.bookings.FindOne(ctx, bson.M{"event_id": eventID, "user_id": userID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking for event %s: %w", eventID, err)
	}
	return &booking, nil
}

func (r *MongoEventRepo) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.bookings.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// BookSeat runs the seat reservation as one multi-document transaction.
func (r *MongoEventRepo) BookSeat(ctx context.Context, booking *models.Booking, month string) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	txnFn := func(sc mongo.SessionContext) error {
		var event models.Event
		if err := r.events.FindOne(sc, bson.M{"id": booking.EventID}).Decode(&event); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return fmt.Errorf("read event failed: %w", err)
		}
		if event.IsFull() {
			return ErrEventFull
		}

		existing, err := r.bookings.CountDocuments(sc,
			bson.M{"event_id": booking.EventID, "user_id": booking.UserID},
			options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("duplicate check failed: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyBooked
		}

		if _, err := r.bookings.InsertOne(sc, booking); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrAlreadyBooked
			}
			return fmt.Errorf("insert booking failed: %w", err)
		}

		// The $expr guard keeps the counter below capacity even if the read above raced.
		filter := bson.M{
			"id":    booking.EventID,
			"$expr": bson.M{"$lt": bson.A{"$booked", "$max_capacity"}},
		}
		res, err := r.events.UpdateOne(sc, filter, bson.M{"$inc": bson.M{"booked": 1}})
		if err != nil {
			return fmt.Errorf("increment booked failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrEventFull
		}

		marker := bson.M{
			"$setOnInsert": bson.M{
				"month":            month,
				"user_id":          booking.UserID,
				"first_booking_at": booking.CreatedAt,
			},
		}
		if _, err := r.markers.UpdateOne(sc,
			bson.M{"month": month, "user_id": booking.UserID},
			marker,
			options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("mark monthly booker failed: %w", err)
		}
		return nil
	}

	if err := r.runTransaction(ctx, txnFn); err != nil {
		return fmt.Errorf("booking transaction failed: %w", err)
	}
	return nil
}

// CancelSeat deletes the booking and releases its seat in one transaction.
func (r *MongoEventRepo) CancelSeat(ctx context.Context, booking *models.Booking) error {
	txnFn := func(sc mongo.SessionContext) error {
		res, err := r.bookings.DeleteOne(sc, bson.M{"id": booking.ID})
		if err != nil {
			return fmt.Errorf("delete booking failed: %w", err)
		}
		if res.DeletedCount == 0 {
			return ErrBookingNotFound
		}

		filter := bson.M{"id": booking.EventID, "booked": bson.M{"$gt": 0}}
		if _, err := r.events.UpdateOne(sc, filter, bson.M{"$inc": bson.M{"booked": -1}}); err != nil {
			return fmt.Errorf("decrement booked failed: %w", err)
		}
		return nil
	}

	if err := r.runTransaction(ctx, txnFn); err != nil {
		return fmt.Errorf("cancel transaction failed: %w", err)
	}
	return nil
}

func (r *MongoEventRepo) runTransaction(ctx context.Context, txnFn func(sc mongo.SessionContext) error) error {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}
