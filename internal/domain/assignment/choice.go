// Package assignment models the assignment selector on record forms.
package assignment

import (
	"errors"
	"strconv"
	"strings"

	"admissions/internal/domain/record"
)

// Form values for the non-staff choices.
const (
	ValueAuto       = "auto"
	ValueUnassigned = ""
	// ValueKeep leaves an existing record's assignment as stored.
	ValueKeep       = "keep"
)

// ErrInvalidChoice is returned for a selector value that is not a choice.
var ErrInvalidChoice = errors.New("invalid assignment choice")

// Mode is the kind of assignment choice.
type Mode int

// Mode constants
const (
	ModeUnassigned Mode = iota
	ModeStaff
	ModeAuto
	ModeKeep
)

// Choice is one of: a concrete staff member, unassigned, or auto allocate.
// The zero value is Unassigned.
type Choice struct {
	mode    Mode
	staffID int64
}

// ToStaff assigns to a concrete staff member.
func ToStaff(id int64) Choice {
	return Choice{mode: ModeStaff, staffID: id}
}

// Unassigned clears the assignment.
func Unassigned() Choice {
	return Choice{mode: ModeUnassigned}
}

// AutoAllocate asks the backend to pick the least-loaded staff member.
func AutoAllocate() Choice {
	return Choice{mode: ModeAuto}
}

// Keep leaves the stored assignment untouched on update.
func Keep() Choice {
	return Choice{mode: ModeKeep}
}

// Resolve replaces Keep with the record's current assignment.
func (c Choice) Resolve(current *int64) Choice {
	if c.mode == ModeKeep {
		return Of(current)
	}
	return c
}

// Mode returns the kind of choice.
func (c Choice) Mode() Mode {
	return c.mode
}

// StaffID returns the chosen staff member, if the choice names one.
func (c Choice) StaffID() (int64, bool) {
	return c.staffID, c.mode == ModeStaff
}

// ParseChoice reads the selector's form value.
// PRE: v is the raw form value
// POST: "auto" is AutoAllocate; "keep" is Keep; "" or "none" is Unassigned;
// a positive decimal is ToStaff
func ParseChoice(v string) (Choice, error) {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case ValueAuto:
		return AutoAllocate(), nil
	case ValueKeep:
		return Keep(), nil
	case ValueUnassigned, "none":
		return Unassigned(), nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return Choice{}, ErrInvalidChoice
	}
	return ToStaff(id), nil
}

// Apply writes the choice onto a record.
// PRE: Keep has been resolved against the stored record
// POST: ToStaff sets the id without the flag; Unassigned sets null without
// the flag; AutoAllocate sets null with the flag
func (c Choice) Apply(target record.Assignable) {
	switch c.mode {
	case ModeKeep:
		return
	case ModeStaff:
		id := c.staffID
		target.SetAssignment(&id, false)
	case ModeAuto:
		target.SetAssignment(nil, true)
	default:
		target.SetAssignment(nil, false)
	}
}

// Value returns the selector form value for the choice.
func (c Choice) Value() string {
	switch c.mode {
	case ModeStaff:
		return strconv.FormatInt(c.staffID, 10)
	case ModeAuto:
		return ValueAuto
	case ModeKeep:
		return ValueKeep
	}
	return ValueUnassigned
}

// FormValue maps a record's current assignment back to a selector value.
func FormValue(current *int64) string {
	if current == nil {
		return ValueUnassigned
	}
	return strconv.FormatInt(*current, 10)
}

// Of returns the choice describing a record's current assignment.
func Of(current *int64) Choice {
	if current == nil {
		return Unassigned()
	}
	return ToStaff(*current)
}
