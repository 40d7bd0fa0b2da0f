package events

import (
	"sync"

	"sportevents/models"

	lru "github.com/hashicorp/golang-lru/v2"
)

type bookingKey struct {
	userID  string
	eventID string
}

// reservedSet is one user's reserved events. complete is true only when
// the set was loaded from the store; sets built from single bookings may
// miss entries.
type reservedSet struct {
	events   map[string]models.Event
	complete bool
}

// resultCache holds the last good event list, enriched events by id, and
// per-user booked status and reserved events. Every exported mutation of
// the service names the regions it touches; see the invalidation table in
// DESIGN.md.
type resultCache struct {
	mu      sync.Mutex
	list    []models.Event
	hasList bool

	entities *lru.Cache[string, models.Event]
	booked   *lru.Cache[bookingKey, bool]
	// reserved is keyed by user so one user's bookings never evict another's.
	reserved *lru.Cache[string, *reservedSet]
}

func newResultCache(capacity int) (*resultCache, error) {
	if capacity <= 0 {
		capacity = 512
	}
	entities, err := lru.New[string, models.Event](capacity)
	if err != nil {
		return nil, err
	}
	booked, err := lru.New[bookingKey, bool](capacity)
	if err != nil {
		return nil, err
	}
	reserved, err := lru.New[string, *reservedSet](capacity)
	if err != nil {
		return nil, err
	}
	return &resultCache{entities: entities, booked: booked, reserved: reserved}, nil
}

// replaceList stores a freshly fetched list, refreshes the entity region for
// every fetched event and the reserved entries that point at them.
func (c *resultCache) replaceList(events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list = cloneEvents(events)
	c.hasList = true

	byID := make(map[string]models.Event, len(events))
	for _, e := range events {
		c.entities.Add(e.ID, e)
		byID[e.ID] = e
	}
	for _, userID := range c.reserved.Keys() {
		set, ok := c.reserved.Peek(userID)
		if !ok {
			continue
		}
		for id := range set.events {
			if fresh, ok := byID[id]; ok {
				set.events[id] = fresh
			}
		}
	}
}

func (c *resultCache) lastList() ([]models.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasList {
		return nil, false
	}
	return cloneEvents(c.list), true
}

// seedList installs a list recovered from the snapshot store without
// touching other regions. A list already in memory wins.
func (c *resultCache) seedList(events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasList {
		return
	}
	c.list = cloneEvents(events)
	c.hasList = true
}

func (c *resultCache) dropList() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
	c.hasList = false
}

// patchList replaces the listed copy of event, if the list holds it.
func (c *resultCache) patchList(event models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.list {
		if c.list[i].ID == event.ID {
			c.list[i] = event
			return
		}
	}
}

func (c *resultCache) findInList(id string) (models.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.list {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func (c *resultCache) entity(id string) (models.Event, bool) {
	return c.entities.Get(id)
}

func (c *resultCache) setEntity(event models.Event) {
	c.entities.Add(event.ID, event)
}

func (c *resultCache) dropEntity(id string) {
	c.entities.Remove(id)
}

func (c *resultCache) bookedStatus(userID, eventID string) (bool, bool) {
	return c.booked.Get(bookingKey{userID: userID, eventID: eventID})
}

func (c *resultCache) setBookedStatus(userID, eventID string, booked bool) {
	c.booked.Add(bookingKey{userID: userID, eventID: eventID}, booked)
}

// markBooked records a successful booking of event by userID.
func (c *resultCache) markBooked(userID string, event models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.booked.Add(bookingKey{userID: userID, eventID: event.ID}, true)
	set, ok := c.reserved.Get(userID)
	if !ok {
		set = &reservedSet{events: map[string]models.Event{}}
		c.reserved.Add(userID, set)
	}
	set.events[event.ID] = event
}

// forgetBooking removes the booked status and reserved entry of one pair.
func (c *resultCache) forgetBooking(userID, eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.booked.Remove(bookingKey{userID: userID, eventID: eventID})
	if set, ok := c.reserved.Get(userID); ok {
		delete(set.events, eventID)
	}
}

// reservedFor returns a copy of the user's reserved events and whether the
// set is known to hold all of them.
func (c *resultCache) reservedFor(userID string) ([]models.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := []models.Event{}
	set, ok := c.reserved.Get(userID)
	if !ok {
		return events, false
	}
	for _, e := range set.events {
		events = append(events, e)
	}
	return events, set.complete
}

// replaceUserBookings swaps the user's booked status and reserved entries
// for the given events in one step. The result is a complete set, even
// when events is empty.
func (c *resultCache) replaceUserBookings(userID string, events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearUserLocked(userID)
	set := &reservedSet{events: make(map[string]models.Event, len(events)), complete: true}
	for _, e := range events {
		c.booked.Add(bookingKey{userID: userID, eventID: e.ID}, true)
		set.events[e.ID] = e
	}
	c.reserved.Add(userID, set)
}

func (c *resultCache) clearUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearUserLocked(userID)
}

func (c *resultCache) clearUserLocked(userID string) {
	for _, key := range c.booked.Keys() {
		if key.userID == userID {
			c.booked.Remove(key)
		}
	}
	c.reserved.Remove(userID)
}

func cloneEvents(events []models.Event) []models.Event {
	out := make([]models.Event, len(events))
	copy(out, events)
	return out
}
