package handlers

import (
	"sportevents/middleware"
	"sportevents/services/analytics"
	"sportevents/services/connectivity"
	"sportevents/services/events"
	"sportevents/services/preferences"
	"sportevents/services/user"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// HealthReporter exposes the latest connectivity snapshot.
type HealthReporter interface {
	Snapshot() connectivity.HealthStatus
}

// HandlerBundle groups the services the HTTP endpoints call into.
type HandlerBundle struct {
	Events   events.EventService
	Users    user.UserService
	Prefs    preferences.Store
	Recorder analytics.Recorder
	Monitor  HealthReporter

	// Verifier guards the mutating and "me" routes.
	Verifier middleware.TokenVerifier
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// ImageMaxDim bounds served profile images when the request gives no size.
	ImageMaxDim int
	Logger      *zap.Logger
}
