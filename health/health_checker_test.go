package health

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/session"
)

type stubUploader struct{}

func (stubUploader) UploadPrescription(context.Context, string, io.Reader) (*entities.UploadResult, error) {
	return &entities.UploadResult{StatusCode: 200}, nil
}

type stubBulk struct{}

func (stubBulk) BulkSearch(context.Context, []string) ([]entities.BulkEntry, error) {
	return nil, nil
}

type memoryStore struct {
	values map[string]string
	broken bool
}

func (m *memoryStore) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memoryStore) Set(key, value string) error {
	if m.broken {
		return io.ErrClosedPipe
	}
	m.values[key] = value
	return nil
}

func (m *memoryStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func (m *memoryStore) UpdatedAt(key string) (time.Time, bool) {
	_, ok := m.values[key]
	return time.Now(), ok
}

func TestHealthCheckHealthy(t *testing.T) {
	registry := session.NewRegistry(stubUploader{}, stubBulk{})
	registry.Create()
	registry.Create()

	h := NewHealthChecker(registry, &memoryStore{values: make(map[string]string)})
	status, data, httpStatus := h.HealthCheck()

	if status != "healthy" {
		t.Errorf("expected healthy, got %s", status)
	}
	if httpStatus != http.StatusOK {
		t.Errorf("expected 200, got %d", httpStatus)
	}
	if data["active_sessions"] != 2 {
		t.Errorf("expected 2 active sessions, got %v", data["active_sessions"])
	}
	if data["store_reachable"] != true {
		t.Error("expected store_reachable true")
	}
}

func TestHealthCheckDegradedWhenStoreFails(t *testing.T) {
	registry := session.NewRegistry(stubUploader{}, stubBulk{})

	h := NewHealthChecker(registry, &memoryStore{values: make(map[string]string), broken: true})
	status, _, httpStatus := h.HealthCheck()

	if status != "degraded" {
		t.Errorf("expected degraded, got %s", status)
	}
	if httpStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", httpStatus)
	}
}
