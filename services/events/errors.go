package events

import (
	"errors"
	"fmt"

	eventRepo "sportevents/database/repository/event"
)

var (
	ErrOffline         = errors.New("no connection to the event store")
	ErrEventNotFound   = errors.New("event not found")
	ErrAlreadyBooked   = errors.New("you have already booked this event")
	ErrEventFull       = errors.New("event is full")
	ErrBookingNotFound = errors.New("booking not found for this event")
)

// ValidationError reports a rejected event field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// translate maps persistence errors onto the service's sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, eventRepo.ErrEventFull):
		return ErrEventFull
	case errors.Is(err, eventRepo.ErrAlreadyBooked):
		return ErrAlreadyBooked
	case errors.Is(err, eventRepo.ErrBookingNotFound):
		return ErrBookingNotFound
	case errors.Is(err, eventRepo.ErrNotFound):
		return ErrEventNotFound
	default:
		return err
	}
}
