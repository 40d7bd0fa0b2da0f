package analytics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Event names logged by the service.
const (
	EventBookingCompleted = "booking_completed"
	EventBookingCancelled = "booking_cancelled"
	EventSportViewed      = "sport_viewed"
)

// Recorder logs analytics events. Callers never wait for or check the outcome.
type Recorder interface {
	LogEvent(ctx context.Context, name string, params map[string]string)
}

// PrometheusRecorder counts events per name and writes one log line each.
type PrometheusRecorder struct {
	counter *prometheus.CounterVec
	logger  *zap.Logger
}

func NewPrometheusRecorder(counter *prometheus.CounterVec, logger *zap.Logger) *PrometheusRecorder {
	return &PrometheusRecorder{counter: counter, logger: logger}
}

func (r *PrometheusRecorder) LogEvent(_ context.Context, name string, params map[string]string) {
	r.counter.WithLabelValues(name).Inc()

	fields := make([]zap.Field, 0, len(params)+1)
	fields = append(fields, zap.String("event", name))
	for k, v := range params {
		fields = append(fields, zap.String(k, v))
	}
	r.logger.Info("analytics event", fields...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) LogEvent(context.Context, string, map[string]string) {}
