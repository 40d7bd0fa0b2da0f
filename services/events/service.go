package events

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	eventRepo "sportevents/database/repository/event"
	"sportevents/models"
	"sportevents/services/analytics"
	"sportevents/services/connectivity"
	"sportevents/utils/clock"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultRecommendationLimit = 4
	maxRecommendationSports    = 10
)

// DefaultEventService implements EventService over an EventRepository.
type DefaultEventService struct {
	repo   eventRepo.EventRepository
	gate   connectivity.Gate
	logger *zap.Logger
	cache  *resultCache

	clock             clock.Clock
	recorder          analytics.Recorder
	index             SearchIndex
	snapshots         SnapshotStore
	results           *prometheus.CounterVec
	cacheCapacity     int
	enrichConcurrency int
}

type Option func(*DefaultEventService)

func WithClock(c clock.Clock) Option {
	return func(s *DefaultEventService) { s.clock = c }
}

func WithRecorder(r analytics.Recorder) Option {
	return func(s *DefaultEventService) { s.recorder = r }
}

func WithSearchIndex(idx SearchIndex) Option {
	return func(s *DefaultEventService) { s.index = idx }
}

func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *DefaultEventService) { s.snapshots = store }
}

// WithResultCounter counts GetAllEvents answers by status.
func WithResultCounter(counter *prometheus.CounterVec) Option {
	return func(s *DefaultEventService) { s.results = counter }
}

func WithCacheCapacity(n int) Option {
	return func(s *DefaultEventService) { s.cacheCapacity = n }
}

func WithEnrichConcurrency(n int) Option {
	return func(s *DefaultEventService) { s.enrichConcurrency = n }
}

// NewEventService builds the façade. The gate is consulted before every remote call.
func NewEventService(repo eventRepo.EventRepository, gate connectivity.Gate, logger *zap.Logger, opts ...Option) (*DefaultEventService, error) {
	s := &DefaultEventService{
		repo:              repo,
		gate:              gate,
		logger:            logger,
		clock:             clock.NewSystem(),
		recorder:          analytics.Nop{},
		cacheCapacity:     512,
		enrichConcurrency: 16,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.enrichConcurrency <= 0 {
		s.enrichConcurrency = 1
	}

	cache, err := newResultCache(s.cacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

func (s *DefaultEventService) online() bool {
	return s.gate.IsOnline()
}

func (s *DefaultEventService) GetAllEvents(ctx context.Context) Result {
	result := s.getAllEvents(ctx)
	if s.results != nil {
		s.results.WithLabelValues(string(result.Status)).Inc()
	}
	return result
}

func (s *DefaultEventService) getAllEvents(ctx context.Context) Result {
	if !s.online() {
		return s.staleOr(ctx, ErrOffline)
	}

	fetched, err := s.repo.ListEvents(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch events, falling back to cache", zap.Error(err))
		return s.staleOr(ctx, fmt.Errorf("failed to fetch events: %w", err))
	}

	enriched := s.enrich(ctx, fetched)
	s.cache.replaceList(enriched)
	if s.snapshots != nil {
		if err := s.snapshots.SaveEvents(ctx, enriched); err != nil {
			s.logger.Warn("failed to save event snapshot", zap.Error(err))
		}
	}
	return success(enriched)
}

// staleOr answers from the in-memory list, then from the snapshot store,
// and fails with cause when neither holds a list.
func (s *DefaultEventService) staleOr(ctx context.Context, cause error) Result {
	if events, ok := s.cache.lastList(); ok {
		return stale(events)
	}
	if s.snapshots != nil {
		events, ok, err := s.snapshots.LoadEvents(ctx)
		if err != nil {
			s.logger.Warn("failed to load event snapshot", zap.Error(err))
		} else if ok {
			s.cache.seedList(events)
			return stale(events)
		}
	}
	return failure(cause)
}

func (s *DefaultEventService) GetNearbyEvents(ctx context.Context, point models.GeoPoint, radiusMeters float64) Result {
	all := s.GetAllEvents(ctx)
	if !all.OK() {
		return all
	}
	return Result{Status: all.Status, Events: FilterNearby(all.Events, point, radiusMeters)}
}

func (s *DefaultEventService) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	if event, ok := s.cache.entity(id); ok {
		return &event, nil
	}
	if event, ok := s.cache.findInList(id); ok {
		return &event, nil
	}
	if !s.online() {
		return nil, ErrOffline
	}

	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, eventRepo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to fetch event %s: %w", id, err)
	}
	enriched := s.enrichOne(ctx, *event)
	s.cache.setEntity(enriched)
	return &enriched, nil
}

func (s *DefaultEventService) CreateEvent(ctx context.Context, event *models.Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	if !s.online() {
		return ErrOffline
	}

	event.Booked = 0
	event.Location = nil
	if err := s.repo.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	s.cache.dropList()
	s.indexEvent(ctx, *event)
	return nil
}

func validateEvent(event *models.Event) error {
	if strings.TrimSpace(event.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be blank"}
	}
	if !event.EndTime.After(event.StartTime) {
		return &ValidationError{Field: "endTime", Message: "must be after startTime"}
	}
	if event.MaxCapacity <= 0 {
		return &ValidationError{Field: "maxCapacity", Message: "must be greater than zero"}
	}
	return nil
}

func (s *DefaultEventService) UpdateEvent(ctx context.Context, id string, fields map[string]any) (*models.Event, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	if !s.online() {
		return nil, ErrOffline
	}
	if err := s.checkTimeOrder(ctx, id, fields); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateEvent(ctx, id, fields); err != nil {
		if errors.Is(err, eventRepo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event %s: %w", id, err)
	}
	s.cache.dropList()
	s.cache.dropEntity(id)

	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated event %s: %w", id, err)
	}
	updated := s.enrichOne(ctx, *event)
	s.indexEvent(ctx, updated)
	return &updated, nil
}

func validateFields(fields map[string]any) error {
	if len(fields) == 0 {
		return &ValidationError{Field: "fields", Message: "nothing to update"}
	}
	for k, v := range fields {
		if !eventRepo.UpdatableEventFields[k] {
			return &ValidationError{Field: k, Message: "cannot be updated"}
		}
		switch k {
		case "name":
			if name, ok := v.(string); !ok || strings.TrimSpace(name) == "" {
				return &ValidationError{Field: k, Message: "must not be blank"}
			}
		case "max_capacity":
			if n, ok := v.(int); !ok || n <= 0 {
				return &ValidationError{Field: k, Message: "must be greater than zero"}
			}
		case "start_time", "end_time":
			if _, ok := v.(time.Time); !ok {
				return &ValidationError{Field: k, Message: "must be a time"}
			}
		}
	}
	return nil
}

// checkTimeOrder merges the time fields of a patch with the stored event
// and rejects the patch if the result does not end after it starts.
func (s *DefaultEventService) checkTimeOrder(ctx context.Context, id string, fields map[string]any) error {
	start, hasStart := fields["start_time"].(time.Time)
	end, hasEnd := fields["end_time"].(time.Time)
	if !hasStart && !hasEnd {
		return nil
	}
	if !hasStart || !hasEnd {
		current, err := s.repo.GetEvent(ctx, id)
		if err != nil {
			if errors.Is(err, eventRepo.ErrNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to fetch event %s: %w", id, err)
		}
		if !hasStart {
			start = current.StartTime
		}
		if !hasEnd {
			end = current.EndTime
		}
	}
	if !end.After(start) {
		return &ValidationError{Field: "end_time", Message: "must be after start_time"}
	}
	return nil
}

// indexEvent pushes event to the search index. Failures are only logged.
func (s *DefaultEventService) indexEvent(ctx context.Context, event models.Event) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexEvent(ctx, event); err != nil {
		s.logger.Warn("failed to index event", zap.String("eventId", event.ID), zap.Error(err))
	}
}

func (s *DefaultEventService) GetVenues(ctx context.Context) ([]models.Venue, error) {
	if !s.online() {
		return nil, ErrOffline
	}
	venues, err := s.repo.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch venues: %w", err)
	}
	return venues, nil
}

func (s *DefaultEventService) GetSports(ctx context.Context) ([]string, error) {
	if !s.online() {
		return nil, ErrOffline
	}
	sports, err := s.repo.ListSports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sports: %w", err)
	}
	return sports, nil
}

func (s *DefaultEventService) GetSkillLevels() []string {
	return slices.Clone(models.SkillLevels)
}

func (s *DefaultEventService) GetPostedEvents(ctx context.Context, organizerID string) ([]models.Event, error) {
	if !s.online() {
		return nil, ErrOffline
	}
	posted, err := s.repo.ListEventsByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events posted by %s: %w", organizerID, err)
	}
	return s.enrich(ctx, posted), nil
}

// GetRecommendedEvents returns up to limit events in the given sports.
// Only the first ten sports are queried.
func (s *DefaultEventService) GetRecommendedEvents(ctx context.Context, sports []string, limit int) ([]models.Event, error) {
	if !s.online() {
		return nil, ErrOffline
	}
	if len(sports) == 0 {
		return []models.Event{}, nil
	}
	if len(sports) > maxRecommendationSports {
		sports = sports[:maxRecommendationSports]
	}
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}

	recommended, err := s.repo.ListEventsBySports(ctx, sports, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recommended events: %w", err)
	}
	return s.enrich(ctx, recommended), nil
}
