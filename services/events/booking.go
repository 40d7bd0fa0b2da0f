package events

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"sportevents/models"
	"sportevents/services/analytics"
	"sportevents/utils/clock"

	"go.uber.org/zap"
)

// CreateBooking reserves one seat of eventID for userID. The remote store is
// never contacted while offline.
func (s *DefaultEventService) CreateBooking(ctx context.Context, eventID, userID string) error {
	if !s.online() {
		return ErrOffline
	}

	booked, err := s.HasBooking(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if booked {
		return ErrAlreadyBooked
	}

	s.recorder.LogEvent(ctx, analytics.EventBookingCompleted, map[string]string{
		"item_id": eventID,
		"user_id": userID,
	})

	now := s.clock.Now()
	booking := &models.Booking{EventID: eventID, UserID: userID, CreatedAt: now}
	if err := s.repo.BookSeat(ctx, booking, clock.MonthKey(now)); err != nil {
		mapped := translate(err)
		if errors.Is(mapped, ErrAlreadyBooked) {
			s.cache.setBookedStatus(userID, eventID, true)
		}
		if mapped == err {
			return fmt.Errorf("failed to book event %s: %w", eventID, err)
		}
		return mapped
	}

	fresh, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		s.logger.Warn("booked event could not be refreshed",
			zap.String("eventId", eventID), zap.Error(err))
		s.cache.setBookedStatus(userID, eventID, true)
		s.cache.dropEntity(eventID)
		s.cache.dropList()
		return nil
	}
	enriched := s.enrichOne(ctx, *fresh)
	s.cache.setEntity(enriched)
	s.cache.patchList(enriched)
	s.cache.markBooked(userID, enriched)
	s.indexEvent(ctx, enriched)
	return nil
}

// CancelBooking releases the user's seat at eventID.
func (s *DefaultEventService) CancelBooking(ctx context.Context, eventID, userID string) error {
	if !s.online() {
		return ErrOffline
	}

	booking, err := s.repo.FindBooking(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to look up booking: %w", err)
	}
	if booking == nil {
		s.cache.setBookedStatus(userID, eventID, false)
		return ErrBookingNotFound
	}

	if err := s.repo.CancelSeat(ctx, booking); err != nil {
		mapped := translate(err)
		if errors.Is(mapped, ErrBookingNotFound) {
			s.cache.setBookedStatus(userID, eventID, false)
			return mapped
		}
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	s.recorder.LogEvent(ctx, analytics.EventBookingCancelled, map[string]string{
		"item_id": eventID,
		"user_id": userID,
	})

	s.cache.forgetBooking(userID, eventID)
	s.cache.dropEntity(eventID)
	fresh, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		s.logger.Warn("cancelled event could not be refreshed",
			zap.String("eventId", eventID), zap.Error(err))
		s.cache.dropList()
		return nil
	}
	enriched := s.enrichOne(ctx, *fresh)
	s.cache.patchList(enriched)
	s.indexEvent(ctx, enriched)
	return nil
}

// HasBooking answers from the cache when it can and asks the store otherwise.
func (s *DefaultEventService) HasBooking(ctx context.Context, eventID, userID string) (bool, error) {
	if booked, ok := s.cache.bookedStatus(userID, eventID); ok {
		return booked, nil
	}
	if !s.online() {
		return false, ErrOffline
	}

	booking, err := s.repo.FindBooking(ctx, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check booking: %w", err)
	}
	booked := booking != nil
	s.cache.setBookedStatus(userID, eventID, booked)
	return booked, nil
}

// PopulateUserBookings reloads the user's booked status and reserved events.
// It does nothing while offline.
func (s *DefaultEventService) PopulateUserBookings(ctx context.Context, userID string) error {
	if !s.online() {
		s.logger.Debug("offline, keeping cached bookings", zap.String("userId", userID))
		return nil
	}

	bookings, err := s.repo.ListBookingsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch bookings for user %s: %w", userID, err)
	}
	if len(bookings) == 0 {
		s.cache.replaceUserBookings(userID, nil)
		return nil
	}

	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.EventID)
	}
	reserved, err := s.repo.ListEventsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to fetch booked events: %w", err)
	}

	enriched := s.enrich(ctx, reserved)
	for _, e := range enriched {
		s.cache.setEntity(e)
	}
	s.cache.replaceUserBookings(userID, enriched)
	return nil
}

func (s *DefaultEventService) ClearBookingCache(userID string) {
	s.cache.clearUser(userID)
}

// GetReservedEvents returns the reserved events of userID by start time.
// A cached set that may be missing entries is reloaded from the store when
// online; any answer that is not known to be complete is Stale.
func (s *DefaultEventService) GetReservedEvents(ctx context.Context, userID string) Result {
	reserved, complete := s.cache.reservedFor(userID)
	if !complete && s.online() {
		if err := s.PopulateUserBookings(ctx, userID); err != nil {
			s.logger.Warn("reserved events could not be reloaded",
				zap.String("userId", userID), zap.Error(err))
		} else {
			reserved, complete = s.cache.reservedFor(userID)
		}
	}
	slices.SortStableFunc(reserved, func(a, b models.Event) int {
		return a.StartTime.Compare(b.StartTime)
	})
	if !complete || !s.online() {
		return stale(reserved)
	}
	return success(reserved)
}
