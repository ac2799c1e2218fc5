package enquiry

import (
	"errors"
	"strings"

	"admissions/internal/domain/record"
	"admissions/internal/domain/rejection"
)

// Status is the follow-up state of an enquiry.
type Status string

// Status constants
const (
	StatusPending   Status = "Pending"
	StatusConnected Status = "Connected"
)

// Statuses lists the valid statuses in display order.
var Statuses = []Status{StatusPending, StatusConnected}

// ErrInvalidStatus is returned for a status outside Statuses.
var ErrInvalidStatus = errors.New("status must be one of: Pending, Connected")

// SnippetLength is the number of characters shown in the list view.
const SnippetLength = 60

// Enquiry is an inbound enquiry, exchanged verbatim with the backend.
type Enquiry struct {
	ID                int64  `json:"id,omitempty"`
	Name              string `json:"name" validate:"required"`
	Email             string `json:"email" validate:"omitempty,email"`
	Phone             string `json:"phone"`
	Message           string `json:"message"`
	Place             string `json:"place"`
	Qualification     string `json:"qualification"`
	Status            Status `json:"status"`
	AssignedStaff     *int64 `json:"assigned_staff"`
	AssignedStaffName string `json:"assigned_staff_name,omitempty"`
	AutoAllocate      bool   `json:"auto_allocate,omitempty"`
	CreatedAt         string `json:"created_at,omitempty"`
}

// RecordID implements record.Identified.
func (e Enquiry) RecordID() int64 {
	return e.ID
}

// AssignedStaffID implements record.Assignable.
func (e Enquiry) AssignedStaffID() *int64 {
	return e.AssignedStaff
}

// SetAssignment implements record.Assignable.
func (e *Enquiry) SetAssignment(staffID *int64, autoAllocate bool) {
	changed := (e.AssignedStaff == nil) != (staffID == nil) ||
		(e.AssignedStaff != nil && staffID != nil && *e.AssignedStaff != *staffID)
	if changed {
		e.AssignedStaffName = ""
	}
	e.AssignedStaff = staffID
	e.AutoAllocate = autoAllocate
}

// StaffLabel returns the assignee display name.
func (e Enquiry) StaffLabel() string {
	return record.StaffLabel(e.AssignedStaff, e.AssignedStaffName)
}

// Snippet returns the message truncated for the list view.
func (e Enquiry) Snippet() string {
	runes := []rune(strings.TrimSpace(e.Message))
	if len(runes) <= SnippetLength {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:SnippetLength])) + "…"
}

// Validate checks the fields the form requires before submission.
// PRE: Enquiry struct is populated
// POST: Returns nil if valid, field errors otherwise
func (e Enquiry) Validate() rejection.FieldErrors {
	fe := record.Validate(e)
	if e.Status != "" && !IsValidStatus(e.Status) {
		if fe == nil {
			fe = rejection.FieldErrors{}
		}
		fe.Add("status", ErrInvalidStatus.Error())
	}
	return fe
}

// Merge overlays edited form fields onto the original record.
func (e Enquiry) Merge(edited Enquiry) Enquiry {
	out := e
	out.Name = edited.Name
	out.Email = edited.Email
	out.Phone = edited.Phone
	out.Message = edited.Message
	out.Place = edited.Place
	out.Qualification = edited.Qualification
	if edited.Status != "" {
		out.Status = edited.Status
	}
	return out
}

// Matches reports whether the free-text search hits the enquiry.
func (e Enquiry) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range []string{e.Name, e.Email, e.Phone, e.Place, e.Qualification, e.Message} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether st is a known status.
func IsValidStatus(st Status) bool {
	for _, v := range Statuses {
		if v == st {
			return true
		}
	}
	return false
}
