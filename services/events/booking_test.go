package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"sportevents/services/analytics"
	"sportevents/services/connectivity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingTwiceBooksOnce(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(true))

	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "u1"))
	err := svc.CreateBooking(context.Background(), "e1", "u1")
	assert.ErrorIs(t, err, ErrAlreadyBooked)
	assert.Equal(t, "you have already booked this event", err.Error())

	assert.Equal(t, 1, repo.event("e1").Booked)
	assert.Equal(t, 1, repo.bookingCount())
}

func TestCreateBookingDedupInsideTransaction(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	first := newTestService(t, repo, gate)
	second := newTestService(t, repo, gate)

	// A stale "not booked" answer leaves only the store to reject the duplicate.
	require.NoError(t, first.CreateBooking(context.Background(), "e1", "u1"))
	second.cache.setBookedStatus("u1", "e1", false)

	err := second.CreateBooking(context.Background(), "e1", "u1")
	assert.ErrorIs(t, err, ErrAlreadyBooked)
	assert.Equal(t, 1, repo.event("e1").Booked)

	booked, err := second.HasBooking(context.Background(), "e1", "u1")
	require.NoError(t, err)
	assert.True(t, booked)
}

func TestCancelMissingBookingLeavesCounter(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(true))
	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "u1"))

	err := svc.CancelBooking(context.Background(), "e1", "u2")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.Equal(t, 1, repo.event("e1").Booked)

	booked, ok := svc.cache.bookedStatus("u2", "e1")
	assert.True(t, ok)
	assert.False(t, booked)
}

func TestCapacityIsEnforced(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(true))

	require.NoError(t, svc.CreateBooking(context.Background(), "e2", "alice"))
	require.NoError(t, svc.CreateBooking(context.Background(), "e2", "bob"))
	err := svc.CreateBooking(context.Background(), "e2", "carol")
	assert.ErrorIs(t, err, ErrEventFull)
	assert.Equal(t, "event is full", err.Error())
	assert.Equal(t, 2, repo.event("e2").Booked)
}

func TestConcurrentBookingsNeverOverbook(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(true))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		full int
	)
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := svc.CreateBooking(context.Background(), "e2", fmt.Sprintf("user-%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrEventFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, 8, full)
	assert.Equal(t, 2, repo.event("e2").Booked)
}

func TestBookingToUnknownEvent(t *testing.T) {
	svc := newTestService(t, seededRepo(), connectivity.NewStatic(true))
	err := svc.CreateBooking(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestOfflineBookingNeverTouchesStore(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)
	require.Equal(t, StatusSuccess, svc.GetAllEvents(context.Background()).Status)

	gate.SetOnline(false)
	before := repo.calls.Load()

	cached := svc.GetAllEvents(context.Background())
	assert.Equal(t, StatusStale, cached.Status)
	assert.Len(t, cached.Events, 3)

	assert.ErrorIs(t, svc.CreateBooking(context.Background(), "e1", "u1"), ErrOffline)
	assert.ErrorIs(t, svc.CancelBooking(context.Background(), "e1", "u1"), ErrOffline)
	assert.Equal(t, before, repo.calls.Load())
}

func TestCreateBookingRecordsAnalyticsAndMarker(t *testing.T) {
	repo := seededRepo()
	recorder := &fakeRecorder{}
	svc := newTestService(t, repo, connectivity.NewStatic(true), WithRecorder(recorder))

	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "u1"))
	require.NoError(t, svc.CreateBooking(context.Background(), "e3", "u1"))

	require.Len(t, recorder.names, 2)
	assert.Equal(t, analytics.EventBookingCompleted, recorder.names[0])
	assert.Equal(t, map[string]string{"item_id": "e1", "user_id": "u1"}, recorder.params[0])

	require.Len(t, repo.markers, 1)
	marker := repo.markers["202611_u1"]
	assert.Equal(t, "202611", marker.Month)
	assert.Equal(t, start, marker.FirstBookingAt)
}

func TestCreateBookingUpdatesCaches(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)
	svc.GetAllEvents(context.Background())

	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "u1"))

	gate.SetOnline(false)
	list := svc.GetAllEvents(context.Background())
	require.Equal(t, StatusStale, list.Status)
	assert.Equal(t, 1, list.Events[0].Booked, "list entry is patched with the fresh event")

	event, err := svc.GetEventByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, event.Booked)
	require.NotNil(t, event.Location)

	booked, err := svc.HasBooking(context.Background(), "e1", "u1")
	require.NoError(t, err)
	assert.True(t, booked)

	reserved := svc.GetReservedEvents(context.Background(), "u1")
	assert.Equal(t, StatusStale, reserved.Status)
	assert.Equal(t, []string{"e1"}, eventIDs(reserved.Events))
}

func TestCancelBookingUpdatesCaches(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)
	svc.GetAllEvents(context.Background())
	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "u1"))

	require.NoError(t, svc.CancelBooking(context.Background(), "e1", "u1"))
	assert.Equal(t, 0, repo.event("e1").Booked)

	gate.SetOnline(false)
	list := svc.GetAllEvents(context.Background())
	assert.Equal(t, 0, list.Events[0].Booked)

	_, err := svc.HasBooking(context.Background(), "e1", "u1")
	assert.ErrorIs(t, err, ErrOffline, "booked status is removed, not set to false")
	assert.Empty(t, svc.GetReservedEvents(context.Background(), "u1").Events)

	_, err = svc.GetEventByID(context.Background(), "e1")
	assert.NoError(t, err, "list still answers once the entity is dropped")
}

func TestCancelBookingDropsListWhenRefreshFails(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)
	svc.GetAllEvents(context.Background())
	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "u1"))

	repo.getErr = errBoom
	require.NoError(t, svc.CancelBooking(context.Background(), "e1", "u1"))

	gate.SetOnline(false)
	assert.Equal(t, StatusError, svc.GetAllEvents(context.Background()).Status)
}

func TestHasBookingCachesRemoteAnswer(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)

	booked, err := svc.HasBooking(context.Background(), "e1", "u1")
	require.NoError(t, err)
	assert.False(t, booked)

	calls := repo.calls.Load()
	booked, err = svc.HasBooking(context.Background(), "e1", "u1")
	require.NoError(t, err)
	assert.False(t, booked)
	assert.Equal(t, calls, repo.calls.Load())

	gate.SetOnline(false)
	booked, err = svc.HasBooking(context.Background(), "e1", "u1")
	require.NoError(t, err)
	assert.False(t, booked)

	_, err = svc.HasBooking(context.Background(), "e2", "u1")
	assert.ErrorIs(t, err, ErrOffline)
}

func TestBookingCacheIsPerUser(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate)

	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "alice"))

	booked, err := svc.HasBooking(context.Background(), "e1", "bob")
	require.NoError(t, err)
	assert.False(t, booked)
	assert.Empty(t, svc.GetReservedEvents(context.Background(), "bob").Events)
}

func TestPopulateUserBookings(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	writer := newTestService(t, repo, gate)
	require.NoError(t, writer.CreateBooking(context.Background(), "e3", "u1"))
	require.NoError(t, writer.CreateBooking(context.Background(), "e1", "u1"))

	svc := newTestService(t, repo, gate)
	svc.cache.setBookedStatus("u1", "e2", true)
	require.NoError(t, svc.PopulateUserBookings(context.Background(), "u1"))

	reserved := svc.GetReservedEvents(context.Background(), "u1")
	assert.Equal(t, StatusSuccess, reserved.Status)
	assert.Equal(t, []string{"e1", "e3"}, eventIDs(reserved.Events), "sorted by start time")
	require.NotNil(t, reserved.Events[0].Location)

	_, ok := svc.cache.bookedStatus("u1", "e2")
	assert.False(t, ok, "stale entries of the user are replaced")

	svc.ClearBookingCache("u1")
	cached, complete := svc.cache.reservedFor("u1")
	assert.Empty(t, cached)
	assert.False(t, complete)
	_, ok = svc.cache.bookedStatus("u1", "e1")
	assert.False(t, ok)

	again := svc.GetReservedEvents(context.Background(), "u1")
	assert.Equal(t, StatusSuccess, again.Status)
	assert.Equal(t, []string{"e1", "e3"}, eventIDs(again.Events), "an online read reloads a cleared user")
}

func TestReservedEventsSurviveOtherUsersBookings(t *testing.T) {
	repo := seededRepo()
	gate := connectivity.NewStatic(true)
	svc := newTestService(t, repo, gate, WithCacheCapacity(1))

	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "alice"))
	require.NoError(t, svc.CreateBooking(context.Background(), "e3", "alice"))
	require.NoError(t, svc.CreateBooking(context.Background(), "e2", "bob"))

	reserved := svc.GetReservedEvents(context.Background(), "alice")
	assert.Equal(t, StatusSuccess, reserved.Status)
	assert.Equal(t, []string{"e1", "e3"}, eventIDs(reserved.Events))

	gate.SetOnline(false)
	evicted := svc.GetReservedEvents(context.Background(), "bob")
	assert.Equal(t, StatusStale, evicted.Status)
	assert.Empty(t, evicted.Events)
}

func TestPartialReservedEventsAreStale(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(true))

	require.NoError(t, svc.CreateBooking(context.Background(), "e1", "alice"))
	repo.bookingsErr = errBoom

	reserved := svc.GetReservedEvents(context.Background(), "alice")
	assert.Equal(t, StatusStale, reserved.Status, "a set built from single bookings may be partial")
	assert.Equal(t, []string{"e1"}, eventIDs(reserved.Events))

	repo.bookingsErr = nil
	assert.Equal(t, StatusSuccess, svc.GetReservedEvents(context.Background(), "alice").Status)
}

func TestPopulateUserBookingsWithoutBookingsClears(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(true))
	svc.cache.setBookedStatus("u1", "e1", true)

	require.NoError(t, svc.PopulateUserBookings(context.Background(), "u1"))
	_, ok := svc.cache.bookedStatus("u1", "e1")
	assert.False(t, ok)
}

func TestPopulateUserBookingsOfflineIsNoop(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(t, repo, connectivity.NewStatic(false))
	svc.cache.setBookedStatus("u1", "e1", true)

	require.NoError(t, svc.PopulateUserBookings(context.Background(), "u1"))
	assert.Zero(t, repo.calls.Load())
	booked, ok := svc.cache.bookedStatus("u1", "e1")
	assert.True(t, ok)
	assert.True(t, booked)
}
