// Package record holds what Student and Enquiry records have in common:
// identity, staff assignment, tolerant field decoding and form validation.
package record

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind names a record collection exposed by the portal.
type Kind string

// Kind constants
const (
	KindStudents  Kind = "students"
	KindEnquiries Kind = "enquiries"
)

// Path returns the portal path for the collection.
func (k Kind) Path() string {
	return "/" + string(k)
}

// Title returns the page heading for the collection.
func (k Kind) Title() string {
	switch k {
	case KindStudents:
		return "Students"
	case KindEnquiries:
		return "Enquiries"
	}
	return string(k)
}

// Singular returns the noun for one record of the collection.
func (k Kind) Singular() string {
	switch k {
	case KindStudents:
		return "student"
	case KindEnquiries:
		return "enquiry"
	}
	return "record"
}

// Identified is anything with a backend identity.
type Identified interface {
	RecordID() int64
}

// Assignable is a record that can be assigned to a staff member.
type Assignable interface {
	Identified
	AssignedStaffID() *int64
	SetAssignment(staffID *int64, autoAllocate bool)
}

// Text is a string field that the backend may serialise as a JSON number
// (decimal and integer columns) or as a string.
type Text string

// UnmarshalJSON accepts strings, numbers and null.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(string(b))
	return nil
}

// MarshalJSON sends empty values as null so numeric backend columns accept them.
func (t Text) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s)
}

// String implements fmt.Stringer.
func (t Text) String() string {
	return string(t)
}

// StaffLabel returns the display name for an assignment, preferring the
// server-supplied denormalised name.
func StaffLabel(staffID *int64, staffName string) string {
	if staffID == nil {
		return "Unassigned"
	}
	if strings.TrimSpace(staffName) != "" {
		return staffName
	}
	return "Staff #" + strconv.FormatInt(*staffID, 10)
}

// Initial returns the avatar letter for a display name.
func Initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}
