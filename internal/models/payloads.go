// Package models provides data model definitions for ClubTrack Core.
package models

// Payload structures for the syncable resources. The queue treats payloads
// as opaque bytes; these types exist so callers (UI forms, handlers) build
// well-formed payloads instead of free-form maps.

// CheckInPayload is the body of a check-in mutation.
type CheckInPayload struct {
	SessionID string `json:"sessionId"`
	AthleteID string `json:"athleteId"`
	Status    string `json:"status"` // present, late, absent
}

// LeaveRequestPayload is the body of a leave-request mutation.
type LeaveRequestPayload struct {
	MemberID string `json:"memberId"`
	FromDate string `json:"fromDate"` // YYYY-MM-DD
	ToDate   string `json:"toDate"`   // YYYY-MM-DD
	Reason   string `json:"reason,omitempty"`
}

// AttendancePayload is the body of an attendance-entry mutation.
type AttendancePayload struct {
	SessionID string `json:"sessionId"`
	AthleteID string `json:"athleteId"`
	Mark      string `json:"mark"` // attended, excused, missed
	Note      string `json:"note,omitempty"`
}
