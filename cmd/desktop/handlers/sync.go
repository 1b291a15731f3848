// Package handlers provides REST API handlers for the offline queue and the
// sync coordinator.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/perbakken/clubtrack/backend/internal/errors"
	"github.com/perbakken/clubtrack/backend/internal/models"
	syncpkg "github.com/perbakken/clubtrack/backend/internal/sync"
	"github.com/perbakken/clubtrack/backend/internal/sync/queue"
)

// WSSyncBroadcaster interface for sync WebSocket events.
type WSSyncBroadcaster interface {
	BroadcastSyncStarted(pending int)
	BroadcastSyncCompleted(synced, retried, abandoned int, duration time.Duration)
	BroadcastSyncFailed(errorCode string)
	BroadcastQueueChanged(pending int)
}

// SyncHandler handles queue and sync operations for the desktop UI.
type SyncHandler struct {
	store *queue.Store
	coord *syncpkg.Coordinator
	wsHub WSSyncBroadcaster
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(store *queue.Store, coord *syncpkg.Coordinator) *SyncHandler {
	return &SyncHandler{
		store: store,
		coord: coord,
	}
}

// SetWebSocketHub sets the WebSocket hub for broadcasting sync events.
func (h *SyncHandler) SetWebSocketHub(wsHub WSSyncBroadcaster) {
	h.wsHub = wsHub
}

// enqueueRequest is the POST /sync/queue body.
type enqueueRequest struct {
	OpType   models.OpType   `json:"op_type"`
	Resource models.Resource `json:"resource"`
	Data     json.RawMessage `json:"data"`
}

// Queue handles /sync/queue:
// GET lists pending operations, POST enqueues one, DELETE clears the queue.
func (h *SyncHandler) Queue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listQueue(w)
	case http.MethodPost:
		h.enqueue(w, r)
	case http.MethodDelete:
		h.clearQueue(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SyncHandler) listQueue(w http.ResponseWriter) {
	ops, err := h.store.ListPending()
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"operations": ops,
		"count":      len(ops),
	})
}

func (h *SyncHandler) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.store.Enqueue(req.OpType, req.Resource, req.Data)
	if err != nil {
		writeAppError(w, err)
		return
	}

	if h.wsHub != nil {
		if count, err := h.store.Count(); err == nil {
			h.wsHub.BroadcastQueueChanged(count)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

func (h *SyncHandler) clearQueue(w http.ResponseWriter) {
	if err := h.store.Clear(); err != nil {
		writeAppError(w, err)
		return
	}

	if h.wsHub != nil {
		h.wsHub.BroadcastQueueChanged(0)
	}

	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /sync/status.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, err := h.coord.Status()
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// SyncNow handles POST /sync/now: one manual synchronization pass.
func (h *SyncHandler) SyncNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.wsHub != nil {
		if count, err := h.store.Count(); err == nil {
			h.wsHub.BroadcastSyncStarted(count)
		}
	}

	report, err := h.coord.Sync(r.Context())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSyncInProgress) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error": "sync already in progress",
			})
			return
		}
		if h.wsHub != nil {
			h.wsHub.BroadcastSyncFailed(string(apperrors.ErrSyncFailed))
		}
		writeAppError(w, err)
		return
	}

	if h.wsHub != nil {
		h.wsHub.BroadcastSyncCompleted(report.Synced, report.Retried, report.Abandoned, report.Duration)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attempted":   report.Attempted,
		"synced":      report.Synced,
		"retried":     report.Retried,
		"abandoned":   report.Abandoned,
		"duration_ms": report.Duration.Milliseconds(),
	})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeAppError maps an AppError to an HTTP status.
func writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := apperrors.ErrInternal

	if appErr, ok := err.(*apperrors.AppError); ok {
		code = appErr.Code
		switch appErr.Code {
		case apperrors.ErrOperationInvalid, apperrors.ErrInvalid, apperrors.ErrValidation:
			status = http.StatusBadRequest
		case apperrors.ErrNotFound, apperrors.ErrOperationNotFound:
			status = http.StatusNotFound
		case apperrors.ErrSyncInProgress:
			status = http.StatusConflict
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"code":  string(code),
	})
}
