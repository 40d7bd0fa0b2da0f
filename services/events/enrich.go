package events

import (
	"context"
	"sync"

	"sportevents/models"

	"go.uber.org/zap"
)

// enrich attaches the venue coordinate to every event that lacks one.
// Lookups run concurrently, bounded by s.enrichConcurrency, and the output
// keeps the input order. A failed lookup leaves that event as it was.
func (s *DefaultEventService) enrich(ctx context.Context, events []models.Event) []models.Event {
	out := make([]models.Event, len(events))
	copy(out, events)

	sem := make(chan struct{}, s.enrichConcurrency)
	var wg sync.WaitGroup
	for i := range out {
		if out[i].HasLocation() || out[i].VenueID == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = s.enrichOne(ctx, out[i])
		}(i)
	}
	wg.Wait()
	return out
}

func (s *DefaultEventService) enrichOne(ctx context.Context, event models.Event) models.Event {
	if event.HasLocation() || event.VenueID == "" {
		return event
	}
	venue, err := s.repo.GetVenue(ctx, event.VenueID)
	if err != nil {
		s.logger.Warn("venue lookup failed, keeping event without location",
			zap.String("eventId", event.ID),
			zap.String("venueId", event.VenueID),
			zap.Error(err))
		return event
	}
	point := venue.Point()
	event.Location = &point
	return event
}
