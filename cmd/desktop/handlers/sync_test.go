// Package handlers provides unit tests for the sync REST handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/perbakken/clubtrack/backend/internal/db"
	syncpkg "github.com/perbakken/clubtrack/backend/internal/sync"
	"github.com/perbakken/clubtrack/backend/internal/sync/queue"
)

// newTestHandler wires a handler over a throwaway store and a stub endpoint.
func newTestHandler(t *testing.T, endpointStatus int) (*SyncHandler, *queue.Store) {
	t.Helper()

	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.InitSchema(database.DB); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(endpointStatus)
	}))
	t.Cleanup(endpoint.Close)

	store := queue.NewStore(database.DB)
	monitor := syncpkg.NewConnectivityMonitor(true)
	client := syncpkg.NewEndpointClient(endpoint.URL, 5*time.Second)
	coord := syncpkg.NewCoordinator(store, client, monitor)

	return NewSyncHandler(store, coord), store
}

// TestEnqueueAndList tests POST then GET on /sync/queue.
func TestEnqueueAndList(t *testing.T) {
	handler, _ := newTestHandler(t, http.StatusOK)

	body := `{"op_type":"create","resource":"check-in","data":{"sessionId":"s1","athleteId":"a1","status":"present"}}`
	req := httptest.NewRequest(http.MethodPost, "/sync/queue", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Queue(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected generated id in response")
	}

	rec = httptest.NewRecorder()
	handler.Queue(rec, httptest.NewRequest(http.MethodGet, "/sync/queue", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var listed struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if listed.Count != 1 {
		t.Errorf("Expected 1 pending operation, got %d", listed.Count)
	}
}

// TestEnqueueRejectsInvalidOperation tests validation errors map to 400.
func TestEnqueueRejectsInvalidOperation(t *testing.T) {
	handler, _ := newTestHandler(t, http.StatusOK)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"op_type":`},
		{"unknown op type", `{"op_type":"upsert","resource":"check-in","data":{}}`},
		{"unknown resource", `{"op_type":"create","resource":"member","data":{}}`},
		{"missing payload", `{"op_type":"create","resource":"check-in"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sync/queue", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.Queue(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

// TestSyncNowDrainsQueue tests the manual trigger endpoint.
func TestSyncNowDrainsQueue(t *testing.T) {
	handler, store := newTestHandler(t, http.StatusOK)

	if _, err := store.Enqueue("create", "check-in", json.RawMessage(`{"x":1}`)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.SyncNow(rec, httptest.NewRequest(http.MethodPost, "/sync/now", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report struct {
		Synced int `json:"synced"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to parse report: %v", err)
	}
	if report.Synced != 1 {
		t.Errorf("Expected 1 synced, got %d", report.Synced)
	}

	count, _ := store.Count()
	if count != 0 {
		t.Errorf("Expected empty queue, got %d", count)
	}
}

// TestClearQueue tests DELETE /sync/queue.
func TestClearQueue(t *testing.T) {
	handler, store := newTestHandler(t, http.StatusOK)

	if _, err := store.Enqueue("create", "attendance", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.Queue(rec, httptest.NewRequest(http.MethodDelete, "/sync/queue", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}

	count, _ := store.Count()
	if count != 0 {
		t.Errorf("Expected empty queue, got %d", count)
	}
}

// TestStatusEndpoint tests GET /sync/status.
func TestStatusEndpoint(t *testing.T) {
	handler, store := newTestHandler(t, http.StatusOK)

	if _, err := store.Enqueue("update", "leave-request", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.Status(rec, httptest.NewRequest(http.MethodGet, "/sync/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var status struct {
		Running      bool `json:"running"`
		PendingCount int  `json:"pending_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse status: %v", err)
	}
	if status.Running {
		t.Error("Expected not running")
	}
	if status.PendingCount != 1 {
		t.Errorf("Expected 1 pending, got %d", status.PendingCount)
	}
}

// TestMethodNotAllowed tests unsupported verbs.
func TestMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t, http.StatusOK)

	rec := httptest.NewRecorder()
	handler.Queue(rec, httptest.NewRequest(http.MethodPatch, "/sync/queue", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Queue PATCH: expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Status(rec, httptest.NewRequest(http.MethodPost, "/sync/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status POST: expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.SyncNow(rec, httptest.NewRequest(http.MethodGet, "/sync/now", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("SyncNow GET: expected 405, got %d", rec.Code)
	}
}
