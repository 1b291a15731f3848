// Package queue provides the durable operation queue for offline mutations.
// Records survive process restarts; the queue is the single source of truth
// for work the sync coordinator still owes the server.
package queue

import (
	"database/sql"
	"encoding/json"
	"time"

	apperrors "github.com/perbakken/clubtrack/backend/internal/errors"
	"github.com/perbakken/clubtrack/backend/internal/logging"
	"github.com/perbakken/clubtrack/backend/internal/models"
	"github.com/perbakken/clubtrack/backend/internal/uuid"
)

// Store is a SQLite-backed durable queue of pending operations.
// Enqueue may be called from any goroutine; the single-connection database
// serializes writers. Only the sync coordinator removes records or touches
// retry counts.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store on top of an opened database.
// The operation_queue table must already exist (db.InitSchema).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Enqueue persists a new operation and returns its generated id.
// The payload is stored byte-for-byte and never modified afterwards.
// Storage failures are returned to the caller; a silently dropped enqueue
// would be indistinguishable from data loss.
func (s *Store) Enqueue(opType models.OpType, resource models.Resource, data json.RawMessage) (string, error) {
	if !opType.Valid() {
		return "", apperrors.New(apperrors.ErrOperationInvalid, "unknown op type: "+string(opType))
	}
	if !resource.Valid() {
		return "", apperrors.New(apperrors.ErrOperationInvalid, "unknown resource: "+string(resource))
	}
	if len(data) == 0 {
		return "", apperrors.New(apperrors.ErrOperationInvalid, "operation payload is empty")
	}

	id := uuid.New()
	createdAt := time.Now().UnixNano()

	query := `
	INSERT INTO operation_queue (id, op_type, resource, data, created_at, retry_count)
	VALUES (?, ?, ?, ?, ?, 0)
	`
	if _, err := s.db.Exec(query, id, string(opType), string(resource), []byte(data), createdAt); err != nil {
		return "", apperrors.Wrap(apperrors.ErrEnqueueFailed, "failed to persist operation", err)
	}

	logging.Debug("Operation enqueued", map[string]interface{}{
		"op_id":    id,
		"op_type":  string(opType),
		"resource": string(resource),
	})

	return id, nil
}

// ListPending returns a snapshot of all stored operations ordered by
// enqueue time ascending. Re-invoking returns the current state, not a
// resumed iterator.
func (s *Store) ListPending() ([]*models.Operation, error) {
	query := `
	SELECT id, op_type, resource, data, created_at, retry_count
	FROM operation_queue
	ORDER BY created_at ASC, rowid ASC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list pending operations", err)
	}
	defer rows.Close()

	var ops []*models.Operation
	for rows.Next() {
		var op models.Operation
		var data []byte
		if err := rows.Scan(&op.ID, &op.OpType, &op.Resource, &data, &op.CreatedAt, &op.RetryCount); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to scan operation", err)
		}
		op.Data = json.RawMessage(data)
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to read pending operations", err)
	}

	return ops, nil
}

// Get retrieves a single operation by id.
func (s *Store) Get(id string) (*models.Operation, error) {
	query := `
	SELECT id, op_type, resource, data, created_at, retry_count
	FROM operation_queue WHERE id = ?
	`
	var op models.Operation
	var data []byte
	err := s.db.QueryRow(query, id).Scan(&op.ID, &op.OpType, &op.Resource, &data, &op.CreatedAt, &op.RetryCount)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrOperationNotFound, "operation not found: "+id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to get operation", err)
	}
	op.Data = json.RawMessage(data)

	return &op, nil
}

// Remove deletes the operation with the given id.
// Removing an id that is already gone is a no-op, so the removal step itself
// can be retried safely.
func (s *Store) Remove(id string) error {
	if _, err := s.db.Exec("DELETE FROM operation_queue WHERE id = ?", id); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to remove operation", err)
	}
	return nil
}

// Clear deletes all operations. Administrative and test use only; normal
// synchronization never calls this.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM operation_queue"); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to clear operation queue", err)
	}
	logging.Info("Operation queue cleared", nil)
	return nil
}

// IncrementRetry adds one to the retry count of the given operation and
// returns the new count. Only the sync coordinator calls this.
func (s *Store) IncrementRetry(id string) (int, error) {
	res, err := s.db.Exec("UPDATE operation_queue SET retry_count = retry_count + 1 WHERE id = ?", id)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "failed to increment retry count", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "failed to check retry update", err)
	}
	if affected == 0 {
		return 0, apperrors.New(apperrors.ErrOperationNotFound, "operation not found: "+id)
	}

	var count int
	if err := s.db.QueryRow("SELECT retry_count FROM operation_queue WHERE id = ?", id).Scan(&count); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "failed to read retry count", err)
	}

	return count, nil
}

// Count returns the number of stored operations.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM operation_queue").Scan(&count); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "failed to count operations", err)
	}
	return count, nil
}
