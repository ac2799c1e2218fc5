package student

import (
	"errors"
	"strings"

	"admissions/internal/domain/record"
	"admissions/internal/domain/rejection"
)

// Status is the admission progress of a student.
type Status string

// Status constants
const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the valid statuses in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// ErrInvalidStatus is returned for a status outside Statuses.
var ErrInvalidStatus = errors.New("status must be one of: Pending, In Progress, Completed")

// Student is a submitted student application, exchanged verbatim with the backend.
type Student struct {
	ID                int64       `json:"id,omitempty"`
	FirstName         string      `json:"first_name" validate:"required"`
	LastName          string      `json:"last_name"`
	Email             string      `json:"email" validate:"omitempty,email"`
	PhoneNumber       string      `json:"phone_number"`
	Address           string      `json:"address"`
	Qualification     string      `json:"qualification"`
	YearOfPassing     record.Text `json:"year_of_passing"`
	Percentage        record.Text `json:"percentage"`
	CourseSelected    string      `json:"course_selected" validate:"required"`
	CollegeSelected   string      `json:"college_selected"`
	Status            Status      `json:"status"`
	AssignedStaff     *int64      `json:"assigned_staff"`
	AssignedStaffName string      `json:"assigned_staff_name,omitempty"`
	AutoAllocate      bool        `json:"auto_allocate,omitempty"`
	CreatedAt         string      `json:"created_at,omitempty"`
}

// RecordID implements record.Identified.
func (s Student) RecordID() int64 {
	return s.ID
}

// AssignedStaffID implements record.Assignable.
func (s Student) AssignedStaffID() *int64 {
	return s.AssignedStaff
}

// SetAssignment implements record.Assignable.
// POST: AssignedStaff and AutoAllocate set; the cached staff name is cleared
// when the assignee changes
func (s *Student) SetAssignment(staffID *int64, autoAllocate bool) {
	if !sameStaff(s.AssignedStaff, staffID) {
		s.AssignedStaffName = ""
	}
	s.AssignedStaff = staffID
	s.AutoAllocate = autoAllocate
}

// FullName joins the name parts.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// StaffLabel returns the assignee display name.
func (s Student) StaffLabel() string {
	return record.StaffLabel(s.AssignedStaff, s.AssignedStaffName)
}

// Validate checks the fields the form requires before submission.
// PRE: Student struct is populated
// POST: Returns nil if valid, field errors otherwise
func (s Student) Validate() rejection.FieldErrors {
	fe := record.Validate(s)
	if s.Status != "" && !IsValidStatus(s.Status) {
		if fe == nil {
			fe = rejection.FieldErrors{}
		}
		fe.Add("status", ErrInvalidStatus.Error())
	}
	return fe
}

// Merge overlays edited form fields onto the original record. Identity,
// assignment and server-maintained fields are kept from the original.
func (s Student) Merge(edited Student) Student {
	out := s
	out.FirstName = edited.FirstName
	out.LastName = edited.LastName
	out.Email = edited.Email
	out.PhoneNumber = edited.PhoneNumber
	out.Address = edited.Address
	out.Qualification = edited.Qualification
	out.YearOfPassing = edited.YearOfPassing
	out.Percentage = edited.Percentage
	out.CourseSelected = edited.CourseSelected
	out.CollegeSelected = edited.CollegeSelected
	if edited.Status != "" {
		out.Status = edited.Status
	}
	return out
}

// Matches reports whether the free-text search hits the student.
func (s Student) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range []string{s.FullName(), s.Email, s.PhoneNumber, s.CourseSelected, s.CollegeSelected} {
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

func sameStaff(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
