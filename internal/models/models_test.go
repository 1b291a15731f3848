// Package models provides unit tests for data model definitions.
package models

import (
	"encoding/json"
	"testing"
	"time"
)

// TestUUIDScan tests scanning database values into UUID.
func TestUUIDScan(t *testing.T) {
	var u UUID

	if err := u.Scan("550e8400-e29b-41d4-a716-446655440000"); err != nil {
		t.Fatalf("Scan string failed: %v", err)
	}
	if u.String() != "550e8400-e29b-41d4-a716-446655440000" {
		t.Errorf("Unexpected UUID value: %s", u)
	}

	if err := u.Scan([]byte("650e8400-e29b-41d4-a716-446655440000")); err != nil {
		t.Fatalf("Scan bytes failed: %v", err)
	}

	if err := u.Scan(nil); err != nil {
		t.Fatalf("Scan nil failed: %v", err)
	}
	if u != "" {
		t.Errorf("Expected empty UUID after nil scan, got %s", u)
	}

	if err := u.Scan(42); err == nil {
		t.Error("Expected error scanning int into UUID")
	}
}

// TestOpTypeValid tests op type validation.
func TestOpTypeValid(t *testing.T) {
	tests := []struct {
		opType OpType
		want   bool
	}{
		{OpCreate, true},
		{OpUpdate, true},
		{OpDelete, true},
		{OpType("upsert"), false},
		{OpType(""), false},
	}

	for _, tt := range tests {
		if got := tt.opType.Valid(); got != tt.want {
			t.Errorf("OpType(%q).Valid() = %v, want %v", tt.opType, got, tt.want)
		}
	}
}

// TestResourceValid tests resource validation.
func TestResourceValid(t *testing.T) {
	tests := []struct {
		resource Resource
		want     bool
	}{
		{ResourceCheckIn, true},
		{ResourceLeaveRequest, true},
		{ResourceAttendance, true},
		{Resource("member"), false},
		{Resource(""), false},
	}

	for _, tt := range tests {
		if got := tt.resource.Valid(); got != tt.want {
			t.Errorf("Resource(%q).Valid() = %v, want %v", tt.resource, got, tt.want)
		}
	}
}

// TestOperationTableName tests the table name.
func TestOperationTableName(t *testing.T) {
	if got := (Operation{}).TableName(); got != "operation_queue" {
		t.Errorf("Expected table name operation_queue, got %s", got)
	}
}

// TestOperationCreatedAtTime tests timestamp conversion.
func TestOperationCreatedAtTime(t *testing.T) {
	now := time.Now()
	op := &Operation{CreatedAt: now.UnixNano()}

	if !op.CreatedAtTime().Equal(now) {
		t.Errorf("Expected %v, got %v", now, op.CreatedAtTime())
	}
}

// TestCheckInPayloadJSON tests payload field names on the wire.
func TestCheckInPayloadJSON(t *testing.T) {
	p := CheckInPayload{SessionID: "s1", AthleteID: "a1", Status: "present"}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"sessionId":"s1","athleteId":"a1","status":"present"}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}
