// Package models provides data model definitions for ClubTrack Core.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*u = ""
	case string:
		*u = UUID(v)
	case []byte:
		*u = UUID(v)
	default:
		return fmt.Errorf("cannot scan %T into UUID", value)
	}
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}

// OpType is the mutation kind of a queued operation.
type OpType string

const (
	OpCreate OpType = "create"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

// Valid reports whether the op type is one of the known mutation kinds.
func (t OpType) Valid() bool {
	switch t {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Resource identifies the domain resource an operation targets.
// Each resource maps to one remote endpoint.
type Resource string

const (
	ResourceCheckIn      Resource = "check-in"
	ResourceLeaveRequest Resource = "leave-request"
	ResourceAttendance   Resource = "attendance"
)

// Valid reports whether the resource is one of the syncable resources.
func (r Resource) Valid() bool {
	switch r {
	case ResourceCheckIn, ResourceLeaveRequest, ResourceAttendance:
		return true
	}
	return false
}

// Operation represents one queued mutation awaiting synchronization.
// Data is opaque to the queue and never altered after enqueue; only
// RetryCount changes over the record's lifetime.
type Operation struct {
	ID         UUID            `db:"id" json:"id"`
	OpType     OpType          `db:"op_type" json:"op_type"`
	Resource   Resource        `db:"resource" json:"resource"`
	Data       json.RawMessage `db:"data" json:"data"`
	CreatedAt  int64           `db:"created_at" json:"created_at"` // Unix nanoseconds
	RetryCount int             `db:"retry_count" json:"retry_count"`
}

// TableName returns the table name for Operation.
func (Operation) TableName() string {
	return "operation_queue"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (o *Operation) CreatedAtTime() time.Time {
	return time.Unix(0, o.CreatedAt)
}
