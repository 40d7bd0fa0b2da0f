package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"sportevents/models"
	"sportevents/services/connectivity"
	"sportevents/utils/clock"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	berlin = models.GeoPoint{Latitude: 52.5200, Longitude: 13.4050}
	paris  = models.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}
	start  = time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
)

type fakeRecorder struct {
	mu     sync.Mutex
	names  []string
	params []map[string]string
}

func (r *fakeRecorder) LogEvent(_ context.Context, name string, params map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.params = append(r.params, params)
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed map[string]models.Event
	results []models.Event
	err     error
}

func (i *fakeIndex) IndexEvent(_ context.Context, e models.Event) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.indexed == nil {
		i.indexed = map[string]models.Event{}
	}
	i.indexed[e.ID] = e
	return nil
}

func (i *fakeIndex) Search(context.Context, models.EventSearch) ([]models.Event, error) {
	return i.results, i.err
}

type memSnapshots struct {
	events []models.Event
	saved  bool
}

func (m *memSnapshots) SaveEvents(_ context.Context, events []models.Event) error {
	m.events = cloneEvents(events)
	m.saved = true
	return nil
}

func (m *memSnapshots) LoadEvents(context.Context) ([]models.Event, bool, error) {
	return cloneEvents(m.events), m.saved, nil
}

func seededRepo() *fakeRepo {
	repo := newFakeRepo()
	repo.addVenue(models.Venue{ID: "v-berlin", Name: "Berlin Arena", Latitude: berlin.Latitude, Longitude: berlin.Longitude})
	repo.addVenue(models.Venue{ID: "v-paris", Name: "Paris Court", Latitude: paris.Latitude, Longitude: paris.Longitude})
	repo.addEvent(models.Event{ID: "e1", Name: "Morning football", Sport: "Football", SkillLevel: "Amateur",
		StartTime: start, EndTime: start.Add(2 * time.Hour), MaxCapacity: 10, VenueID: "v-berlin", OrganizerID: "org1"})
	repo.addEvent(models.Event{ID: "e2", Name: "Tennis doubles", Description: "Friendly match", Sport: "Tennis", SkillLevel: "Pro",
		StartTime: start.Add(24 * time.Hour), EndTime: start.Add(26 * time.Hour), MaxCapacity: 2, VenueID: "v-paris", OrganizerID: "org2"})
	repo.addEvent(models.Event{ID: "e3", Name: "Pickup basketball", Sport: "Basketball", SkillLevel: "Rookie",
		StartTime: start.Add(48 * time.Hour), EndTime: start.Add(49 * time.Hour), MaxCapacity: 5, OrganizerID: "org1"})
	return repo
}

func newTestService(t *testing.T, repo *fakeRepo, gate connectivity.Gate, opts ...Option) *DefaultEventService {
	t.Helper()
	opts = append([]Option{WithClock(clock.NewFixed(start))}, opts...)
	svc, err := NewEventService(repo, gate, zap.NewNop(), opts...)
	require.NoError(t, err)
	return svc
}

func eventIDs(events []models.Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestGetAllEventsOnlineThenOfflineIsStale(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)

	fresh := svc.GetAllEvents(context.Background())
	require.Equal(t, StatusSuccess, fresh.Status)
	assert.Equal(t, []string{"e1", "e2", "e3"}, eventIDs(fresh.Events))

	gate.SetOnline(false)
	cached := svc.GetAllEvents(context.Background())
	assert.Equal(t, StatusStale, cached.Status)
	assert.NoError(t, cached.Err)
	assert.Equal(t, fresh.Events, cached.Events)
	assert.Len(t, cached.Events, 3)
}

func TestGetAllEventsRemoteFailure(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(true))

	repo.listErr = errBoom
	first := svc.GetAllEvents(context.Background())
	assert.Equal(t, StatusError, first.Status)
	assert.ErrorIs(t, first.Err, errBoom)
	assert.Contains(t, first.Err.Error(), "boom")

	repo.listErr = nil
	require.Equal(t, StatusSuccess, svc.GetAllEvents(context.Background()).Status)

	repo.listErr = errBoom
	fallback := svc.GetAllEvents(context.Background())
	assert.Equal(t, StatusStale, fallback.Status)
	assert.Len(t, fallback.Events, 3)
}

func TestGetAllEventsOfflineWithoutCache(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(false))

	result := svc.GetAllEvents(context.Background())
	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, ErrOffline)
	assert.Zero(t, repo.calls.Load())
}

func TestGetAllEventsSnapshotSurvivesRestart(t *testing.T) {
	repo := seededRepo()
	snapshots := &memSnapshots{}

	first := newTestService(t, repo, connectivity.NewStatic(true), WithSnapshotStore(snapshots))
	require.Equal(t, StatusSuccess, first.GetAllEvents(context.Background()).Status)

	restarted := newTestService(t, repo, connectivity.NewStatic(false), WithSnapshotStore(snapshots))
	result := restarted.GetAllEvents(context.Background())
	assert.Equal(t, StatusStale, result.Status)
	assert.Equal(t, []string{"e1", "e2", "e3"}, eventIDs(result.Events))
	require.NotNil(t, result.Events[0].Location)
	assert.Equal(t, berlin, *result.Events[0].Location)
}

func TestGetAllEventsCountsResults(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "results_total"}, []string{"status"})
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, seededRepo(), gate, WithResultCounter(counter))

	svc.GetAllEvents(context.Background())
	gate.SetOnline(false)
	svc.GetAllEvents(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(counter.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(counter.WithLabelValues("stale")))
}

func TestGetNearbyEvents(t *testing.T) {
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, seededRepo(), gate)

	near := svc.GetNearbyEvents(context.Background(), berlin, 10_000)
	assert.Equal(t, StatusSuccess, near.Status)
	assert.Equal(t, []string{"e1"}, eventIDs(near.Events))

	wide := svc.GetNearbyEvents(context.Background(), berlin, 1_000_000)
	assert.Equal(t, []string{"e1", "e2"}, eventIDs(wide.Events), "events without a location never match")

	gate.SetOnline(false)
	stale := svc.GetNearbyEvents(context.Background(), paris, 10_000)
	assert.Equal(t, StatusStale, stale.Status)
	assert.Equal(t, []string{"e2"}, eventIDs(stale.Events))
}

func TestGetNearbyEventsPassesErrorThrough(t *testing.T) {
	svc := newTestService(t, seededRepo(), connectivity.NewStatic(false))
	result := svc.GetNearbyEvents(context.Background(), berlin, 10_000)
	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, ErrOffline)
}

func TestGetEventByID(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)

	event, err := svc.GetEventByID(context.Background(), "e2")
	require.NoError(t, err)
	require.NotNil(t, event.Location)
	assert.Equal(t, paris, *event.Location)

	_, err = svc.GetEventByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)

	gate.SetOnline(false)
	cached, err := svc.GetEventByID(context.Background(), "e2")
	require.NoError(t, err)
	assert.Equal(t, "Tennis doubles", cached.Name)

	_, err = svc.GetEventByID(context.Background(), "e1")
	assert.ErrorIs(t, err, ErrOffline)
}

func TestGetEventByIDFallsBackToList(t *testing.T) {
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, seededRepo(), gate, WithCacheCapacity(1))
	svc.GetAllEvents(context.Background())

	gate.SetOnline(false)
	event, err := svc.GetEventByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", event.ID)
}

func TestCreateEventValidation(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(true))

	cases := map[string]models.Event{
		"blank name":     {Name: "  ", StartTime: start, EndTime: start.Add(time.Hour), MaxCapacity: 4},
		"end not after":  {Name: "Run", StartTime: start, EndTime: start, MaxCapacity: 4},
		"zero capacity":  {Name: "Run", StartTime: start, EndTime: start.Add(time.Hour), MaxCapacity: 0},
		"negative seats": {Name: "Run", StartTime: start, EndTime: start.Add(time.Hour), MaxCapacity: -1},
	}
	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			err := svc.CreateEvent(context.Background(), &event)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
	assert.Zero(t, repo.calls.Load())
}

func TestCreateEventOffline(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(false))

	err := svc.CreateEvent(context.Background(), &models.Event{Name: "Run", StartTime: start, EndTime: start.Add(time.Hour), MaxCapacity: 4})
	assert.ErrorIs(t, err, ErrOffline)
	assert.Zero(t, repo.calls.Load())
}

func TestCreateEventDropsListAndIndexes(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	index := &fakeIndex{}
	svc := newTestService(t, repo, gate, WithSearchIndex(index))
	svc.GetAllEvents(context.Background())

	event := &models.Event{Name: "Evening run", Sport: "Running", StartTime: start, EndTime: start.Add(time.Hour), MaxCapacity: 20, Booked: 7}
	require.NoError(t, svc.CreateEvent(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.Zero(t, event.Booked)
	assert.Contains(t, index.indexed, event.ID)

	gate.SetOnline(false)
	result := svc.GetAllEvents(context.Background())
	assert.Equal(t, StatusError, result.Status, "list cache is dropped after a create")
}

func TestBookingChangesAreReindexed(t *testing.T) {
	repo := seededRepo()
	index := &fakeIndex{}
	svc := newTestService(t, repo, connectivity.NewStatic(true), WithSearchIndex(index))

	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "u1"))
	require.Contains(t, index.indexed, "e1")
	assert.Equal(t, 1, index.indexed["e1"].Booked)

	require.NoError(t, svc.CancelBooking(context.Background(), "e1", "u1"))
	assert.Equal(t, 0, index.indexed["e1"].Booked)
}

func TestUpdateEvent(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	index := &fakeIndex{}
	svc := newTestService(t, repo, gate, WithSearchIndex(index))

	_, err := svc.GetEventByID(context.Background(), "e1")
	require.NoError(t, err)

	updated, err := svc.UpdateEvent(context.Background(), "e1", map[string]any{"name": "Sunday football", "max_capacity": 12})
	require.NoError(t, err)
	assert.Equal(t, "Sunday football", updated.Name)
	assert.Equal(t, 12, updated.MaxCapacity)
	assert.Equal(t, "Sunday football", index.indexed["e1"].Name)

	gate.SetOnline(false)
	_, err = svc.GetEventByID(context.Background(), "e1")
	assert.ErrorIs(t, err, ErrOffline, "entity cache is dropped after an update")

	gate.SetOnline(true)
	_, err = svc.UpdateEvent(context.Background(), "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrEventNotFound)

	var verr *ValidationError
	_, err = svc.UpdateEvent(context.Background(), "e1", map[string]any{"booked": 3})
	assert.True(t, errors.As(err, &verr))
	_, err = svc.UpdateEvent(context.Background(), "e1", map[string]any{"start_time": start, "end_time": start.Add(-time.Hour)})
	assert.True(t, errors.As(err, &verr))
	_, err = svc.UpdateEvent(context.Background(), "e1", map[string]any{})
	assert.True(t, errors.As(err, &verr))
}

func TestEnrichIsIdempotent(t *testing.T) {
	svc := newTestService(t, seededRepo(), connectivity.NewStatic(true))
	input := []models.Event{{ID: "e1", VenueID: "v-berlin"}}

	once := svc.enrich(context.Background(), input)
	twice := svc.enrich(context.Background(), once)
	require.NotNil(t, once[0].Location)
	assert.Equal(t, *once[0].Location, *twice[0].Location)
	assert.Nil(t, input[0].Location, "input is not modified")
}

func TestEnrichKeepsEventOnVenueFailure(t *testing.T) {
	repo := seededRepo()
	repo.venueErr = errBoom
	svc := newTestService(t, repo, connectivity.NewStatic(true))

	result := svc.GetAllEvents(context.Background())
	require.Equal(t, StatusSuccess, result.Status)
	assert.Len(t, result.Events, 3)
	for _, e := range result.Events {
		assert.Nil(t, e.Location)
	}
}

func TestEnrichPreservesOrderUnderConcurrency(t *testing.T) {
	repo := newFakeRepo()
	input := make([]models.Event, 0, 50)
	for i := range 50 {
		venueID := fmt.Sprintf("v%d", i)
		repo.addVenue(models.Venue{ID: venueID, Latitude: float64(i), Longitude: float64(-i)})
		input = append(input, models.Event{ID: fmt.Sprintf("e%d", i), VenueID: venueID})
	}
	svc := newTestService(t, repo, connectivity.NewStatic(true), WithEnrichConcurrency(4))

	out := svc.enrich(context.Background(), input)
	require.Len(t, out, 50)
	for i, e := range out {
		assert.Equal(t, fmt.Sprintf("e%d", i), e.ID)
		require.NotNil(t, e.Location)
		assert.Equal(t, float64(i), e.Location.Latitude)
	}
	assert.EqualValues(t, 50, repo.venueCalls.Load())
}

func TestGetVenuesSportsAndSkillLevels(t *testing.T) {
	repo := seededRepo()
	repo.sports = []string{"Football", "Tennis"}
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)

	venues, err := svc.GetVenues(context.Background())
	require.NoError(t, err)
	assert.Len(t, venues, 2)

	sports, err := svc.GetSports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Football", "Tennis"}, sports)

	levels := svc.GetSkillLevels()
	assert.Equal(t, []string{"Rookie", "Amateur", "Mid-Level", "Pro"}, levels)
	levels[0] = "changed"
	assert.Equal(t, "Rookie", svc.GetSkillLevels()[0])

	gate.SetOnline(false)
	_, err = svc.GetVenues(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
	_, err = svc.GetSports(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestGetPostedEvents(t *testing.T) {
	svc := newTestService(t, seededRepo(), connectivity.NewStatic(true))
	posted, err := svc.GetPostedEvents(context.Background(), "org1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e3"}, eventIDs(posted))
	require.NotNil(t, posted[0].Location)
}

func TestGetRecommendedEvents(t *testing.T) {
	repo := seededRepo()
	for i := range 6 {
		repo.addEvent(models.Event{ID: fmt.Sprintf("f%d", i), Sport: "Football", MaxCapacity: 5})
	}
	repo.addEvent(models.Event{ID: "climb", Sport: "Climbing", MaxCapacity: 5})
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)

	empty, err := svc.GetRecommendedEvents(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Zero(t, repo.calls.Load())

	football, err := svc.GetRecommendedEvents(context.Background(), []string{"Football"}, 0)
	require.NoError(t, err)
	assert.Len(t, football, 4)

	sports := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "Climbing"}
	trimmed, err := svc.GetRecommendedEvents(context.Background(), sports, 10)
	require.NoError(t, err)
	assert.Empty(t, trimmed, "only the first ten sports are queried")

	gate.SetOnline(false)
	_, err = svc.GetRecommendedEvents(context.Background(), []string{"Football"}, 4)
	assert.ErrorIs(t, err, ErrOffline)
}

func TestUpdateEventChecksTimeOrderAgainstStoredEvent(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(true))
	stored := repo.event("e1")

	_, err := svc.UpdateEvent(context.Background(), "e1", map[string]any{"start_time": stored.EndTime.Add(time.Hour)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_time", verr.Field)
	assert.Equal(t, stored.StartTime, repo.event("e1").StartTime, "rejected patch is not written")

	_, err = svc.UpdateEvent(context.Background(), "e1", map[string]any{"end_time": stored.StartTime})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.UpdateEvent(context.Background(), "missing", map[string]any{"end_time": stored.EndTime})
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = svc.UpdateEvent(context.Background(), "e1", map[string]any{"start_time": "tomorrow"})
	assert.ErrorAs(t, err, &verr)

	moved, err := svc.UpdateEvent(context.Background(), "e1", map[string]any{"end_time": stored.EndTime.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, stored.EndTime.Add(time.Hour), moved.EndTime)
}

func TestSearchEvents(t *testing.T) {
	t.Run("index", func(t *testing.T) {
		index := &fakeIndex{results: []models.Event{{ID: "e2", VenueID: "v-paris"}}}
		svc := newTestService(t, seededRepo(), connectivity.NewStatic(true), WithSearchIndex(index))

		result := svc.SearchEvents(context.Background(), models.EventSearch{Query: "tennis"})
		assert.Equal(t, StatusSuccess, result.Status)
		require.Len(t, result.Events, 1)
		assert.NotNil(t, result.Events[0].Location)
	})

	t.Run("index hits are read from the store", func(t *testing.T) {
		repo := seededRepo()
		index := &fakeIndex{results: []models.Event{{ID: "e3"}, {ID: "e2", Booked: 0}, {ID: "gone"}}}
		svc := newTestService(t, repo, connectivity.NewStatic(true), WithSearchIndex(index))
		require.NoError(t, svc.CreateBooking(context.Background(), "e2", "u1"))

		result := svc.SearchEvents(context.Background(), models.EventSearch{Query: "tennis"})
		assert.Equal(t, StatusSuccess, result.Status)
		assert.Equal(t, []string{"e3", "e2"}, eventIDs(result.Events), "index order is kept")
		assert.Equal(t, 1, result.Events[1].Booked)
	})

	t.Run("store failure returns index copies as stale", func(t *testing.T) {
		repo := seededRepo()
		repo.idsErr = errBoom
		index := &fakeIndex{results: []models.Event{{ID: "e2", VenueID: "v-paris"}}}
		svc := newTestService(t, repo, connectivity.NewStatic(true), WithSearchIndex(index))

		result := svc.SearchEvents(context.Background(), models.EventSearch{Query: "tennis"})
		assert.Equal(t, StatusStale, result.Status)
		assert.Equal(t, []string{"e2"}, eventIDs(result.Events))
	})

	t.Run("index failure falls back to list", func(t *testing.T) {
		index := &fakeIndex{err: errBoom}
		svc := newTestService(t, seededRepo(), connectivity.NewStatic(true), WithSearchIndex(index))

		result := svc.SearchEvents(context.Background(), models.EventSearch{Query: "FRIENDLY"})
		assert.Equal(t, StatusSuccess, result.Status)
		assert.Equal(t, []string{"e2"}, eventIDs(result.Events))
	})

	t.Run("offline filters stale list", func(t *testing.T) {
		gate := connectivity.NewStatic(true)
		svc := newTestService(t, seededRepo(), gate)
		svc.GetAllEvents(context.Background())
		gate.SetOnline(false)

		result := svc.SearchEvents(context.Background(), models.EventSearch{Sport: "football", SkillLevel: "amateur"})
		assert.Equal(t, StatusStale, result.Status)
		assert.Equal(t, []string{"e1"}, eventIDs(result.Events))
	})
}
