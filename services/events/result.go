package events

import "sportevents/models"

// Status tells how fresh a Result is.
type Status string

const (
	StatusSuccess Status = "success"
	StatusStale   Status = "stale"
	StatusError   Status = "error"
)

// Result is a list answer. Stale results come from the cache and carry no error.
type Result struct {
	Status Status
	Events []models.Event
	Err    error
}

func success(events []models.Event) Result {
	return Result{Status: StatusSuccess, Events: events}
}

func stale(events []models.Event) Result {
	return Result{Status: StatusStale, Events: events}
}

func failure(err error) Result {
	return Result{Status: StatusError, Err: err}
}

// OK reports whether the result carries events.
func (r Result) OK() bool {
	return r.Status != StatusError
}
