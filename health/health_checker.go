// Package health provides health checking for the MedLinkr gateway.
package health

import (
	"net/http"
	"runtime"
	"time"

	"github.com/medlinkr/medlinkr-api/interfaces"
	"github.com/medlinkr/medlinkr-api/session"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	sessions  *session.Registry
	store     interfaces.KeyValueStore
	startTime time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(sessions *session.Registry, store interfaces.KeyValueStore) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		sessions:  sessions,
		store:     store,
		startTime: time.Now(),
	}
}

// HealthCheck reports gateway health. The durable store is the only hard
// dependency checked here: the backend collaborators are remote and their
// failures surface per request, not as gateway unhealth.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	status = "healthy"
	httpStatus = http.StatusOK

	storeOK := h.storeReachable()
	if !storeOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	data = map[string]any{
		"uptime_seconds":  int64(time.Since(h.startTime).Seconds()),
		"memory_usage_mb": int(m.Alloc / 1024 / 1024),
		"store_reachable": storeOK,
		"active_sessions": h.sessions.Count(),
		"goroutines":      runtime.NumGoroutine(),
	}

	return status, data, httpStatus
}

// storeReachable probes the durable store with a cheap read.
func (h *HealthCheckerImpl) storeReachable() bool {
	if h.store == nil {
		return false
	}
	if err := h.store.Set("healthProbe", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return false
	}
	_, ok := h.store.Get("healthProbe")
	return ok
}
