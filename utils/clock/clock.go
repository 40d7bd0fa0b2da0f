package clock

import "time"

// Clock supplies the current time to services that stamp bookings and markers.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// MonthKey formats t as the "yyyyMM" bucket used by monthly unique booker markers.
func MonthKey(t time.Time) string {
	return t.UTC().Format("200601")
}
