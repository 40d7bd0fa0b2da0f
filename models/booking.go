package models

import "time"

// Booking records that a user holds one seat at an event.
type Booking struct {
	ID        string    `bson:"id" json:"id" firestore:"-"`
	EventID   string    `bson:"event_id" json:"eventId" firestore:"eventId"`
	UserID    string    `bson:"user_id" json:"userId" firestore:"userId"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt" firestore:"timestamp"`
}

// MonthlyUniqueBooker marks that a user booked at least once in a calendar month.
type MonthlyUniqueBooker struct {
	Month          string    `bson:"month" json:"month" firestore:"-"`
	UserID         string    `bson:"user_id" json:"userId" firestore:"-"`
	FirstBookingAt time.Time `bson:"first_booking_at" json:"firstBookingAt" firestore:"first_booking_at"`
}
