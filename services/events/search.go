package events

import (
	"context"
	"strings"

	"sportevents/models"

	"go.uber.org/zap"
)

// SearchEvents queries the search index when it is configured and reachable,
// and otherwise filters the event list in memory.
func (s *DefaultEventService) SearchEvents(ctx context.Context, query models.EventSearch) Result {
	if s.index != nil && s.online() {
		found, err := s.index.Search(ctx, query)
		if err == nil {
			return s.hydrate(ctx, found)
		}
		s.logger.Warn("search index query failed, filtering event list", zap.Error(err))
	}

	all := s.GetAllEvents(ctx)
	if !all.OK() {
		return all
	}
	matched := []models.Event{}
	for _, e := range all.Events {
		if matchesSearch(e, query) {
			matched = append(matched, e)
		}
	}
	return Result{Status: all.Status, Events: matched}
}

// hydrate replaces index hits with the stored events so counters such as
// booked are current. Hits keep their index order; ids no longer in the
// store are dropped. If the store cannot answer, the index copies are
// returned as Stale.
func (s *DefaultEventService) hydrate(ctx context.Context, hits []models.Event) Result {
	if len(hits) == 0 {
		return success([]models.Event{})
	}
	ids := make([]string, len(hits))
	for n, h := range hits {
		ids[n] = h.ID
	}
	stored, err := s.repo.ListEventsByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("search hits could not be loaded from the store", zap.Error(err))
		return stale(s.enrich(ctx, hits))
	}
	byID := make(map[string]models.Event, len(stored))
	for _, e := range stored {
		byID[e.ID] = e
	}
	ordered := make([]models.Event, 0, len(hits))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return success(s.enrich(ctx, ordered))
}

func matchesSearch(e models.Event, q models.EventSearch) bool {
	if q.Sport != "" && !strings.EqualFold(e.Sport, q.Sport) {
		return false
	}
	if q.SkillLevel != "" && !strings.EqualFold(e.SkillLevel, q.SkillLevel) {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(q.Query))
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Name), text) ||
		strings.Contains(strings.ToLower(e.Description), text)
}
