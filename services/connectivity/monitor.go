package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Gate reports whether the remote store can be reached. It is a binary
// signal with no retries or quality measure.
type Gate interface {
	IsOnline() bool
}

// Pinger is anything that can be probed for reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Store     bool      `json:"store"`
	Redis     bool      `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Monitor probes the store and Redis on a ticker and keeps the latest result.
// IsOnline follows the store only; Redis backs optional caches.
type Monitor struct {
	store    Pinger
	redis    Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.RWMutex
	current HealthStatus
}

// NewMonitor creates a Monitor. redis may be nil.
func NewMonitor(store, redis Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		store:    store,
		redis:    redis,
		interval: interval,
		timeout:  2 * time.Second,
		logger:   logger,
	}
}

// Check runs one probe round and stores its result.
func (m *Monitor) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Store:     m.probe(ctx, m.store),
		Redis:     m.redis != nil && m.probe(ctx, m.redis),
		CheckedAt: time.Now(),
	}

	m.mu.Lock()
	previous := m.current
	m.current = status
	m.mu.Unlock()

	if !previous.CheckedAt.IsZero() && previous.Store != status.Store {
		if status.Store {
			m.logger.Info("remote store is reachable again")
		} else {
			m.logger.Warn("remote store became unreachable, serving cached data")
		}
	}
	return status
}

func (m *Monitor) probe(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return p.Ping(ctx) == nil
}

// Start performs an initial check, then re-checks every interval until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	m.Check(ctx)
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Store
}

// Snapshot returns the latest stored health snapshot.
func (m *Monitor) Snapshot() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Static is a gate with a fixed answer, switchable at runtime.
type Static struct {
	online atomic.Bool
}

func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) IsOnline() bool { return s.online.Load() }

func (s *Static) SetOnline(online bool) { s.online.Store(online) }
