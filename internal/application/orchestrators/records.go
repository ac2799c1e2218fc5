package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"admissions/internal/domain/assignment"
	"admissions/internal/domain/record"
	"admissions/internal/domain/rejection"
	"admissions/internal/domain/session"
)

// Domain errors shared by the record orchestrators.
var (
	ErrNoScope        = errors.New("Your session has no staff identifier. Please log in again.")
	ErrRecordNotFound = errors.New("Record not found. It may have been deleted.")
	ErrNotAdmin       = errors.New("Only administrators can do that.")
)

// AssignmentField is the form field the assignment selector reports errors on.
const AssignmentField = "assigned_staff"

// editable is what the shared save flow needs from a record value.
type editable[T any] interface {
	record.Identified
	AssignedStaffID() *int64
	Validate() rejection.FieldErrors
	Merge(T) T
}

// assignablePtr lets the save flow write the assignment through a pointer.
type assignablePtr[T any] interface {
	*T
	record.Assignable
}

// recordStore is the backend surface shared by student and enquiry stores.
type recordStore[T any] interface {
	List(ctx context.Context, scope string) ([]T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, rec T, scope string) (T, error)
}

// SaveResult carries the stored record and the assignment that was applied.
type SaveResult[T any] struct {
	Record     T
	Assignment assignment.Choice
	// Reassigned is true when an administrator moved the record to a
	// different concrete staff member.
	Reassigned bool
}

func invalid(fe rejection.FieldErrors) error {
	return &rejection.Rejection{Status: http.StatusBadRequest, Fields: fe}
}

// resolveChoice reads the selector for administrators. Other roles cannot
// assign: on create the record goes to their own staff id, on update the
// original assignment is kept (ok is false).
func resolveChoice(sess session.Context, raw string, creating bool) (choice assignment.Choice, ok bool, err error) {
	if sess.IsAdmin() {
		c, err := assignment.ParseChoice(raw)
		if err != nil {
			fe := rejection.FieldErrors{}
			fe.Add(AssignmentField, err.Error())
			return assignment.Choice{}, false, invalid(fe)
		}
		if creating && c.Mode() == assignment.ModeKeep {
			fe := rejection.FieldErrors{}
			fe.Add(AssignmentField, assignment.ErrInvalidChoice.Error())
			return assignment.Choice{}, false, invalid(fe)
		}
		return c, true, nil
	}
	if !creating {
		return assignment.Choice{}, false, nil
	}
	id, err := strconv.ParseInt(sess.StaffID, 10, 64)
	if err != nil || id <= 0 {
		return assignment.Unassigned(), true, nil
	}
	return assignment.ToStaff(id), true, nil
}

// createRecord validates, assigns and submits a new record.
// PRE: sess is the requesting session
// POST: Returns the record as stored by the backend, or a *rejection.Rejection
// for local validation failures
func createRecord[T editable[T], PT assignablePtr[T]](ctx context.Context, kind record.Kind, sess session.Context, rec T, rawChoice string, store recordStore[T]) (SaveResult[T], error) {
	if _, ok := sess.Scope(); !ok {
		return SaveResult[T]{}, ErrNoScope
	}
	if fe := rec.Validate(); fe != nil {
		return SaveResult[T]{}, invalid(fe)
	}
	choice, apply, err := resolveChoice(sess, rawChoice, true)
	if err != nil {
		return SaveResult[T]{}, err
	}
	if apply {
		choice.Apply(PT(&rec))
	}

	created, err := store.Create(ctx, rec)
	if err != nil {
		return SaveResult[T]{}, err
	}
	if created.RecordID() == 0 {
		created = rec
	}

	slog.Info("record_event", "event", "created", "kind", string(kind), "id", created.RecordID(),
		"role", string(sess.Role), "assignment", choice.Value())
	_, toStaff := choice.StaffID()
	return SaveResult[T]{Record: created, Assignment: choice, Reassigned: sess.IsAdmin() && toStaff}, nil
}

// updateRecord merges edited fields over the original and submits the full record.
// PRE: edited.RecordID() > 0
// POST: The PUT body is the original record with edited fields and, for
// administrators, the chosen assignment applied
func updateRecord[T editable[T], PT assignablePtr[T]](ctx context.Context, kind record.Kind, sess session.Context, edited T, rawChoice string, store recordStore[T]) (SaveResult[T], error) {
	scope, ok := sess.Scope()
	if !ok {
		return SaveResult[T]{}, ErrNoScope
	}
	if fe := edited.Validate(); fe != nil {
		return SaveResult[T]{}, invalid(fe)
	}
	choice, apply, err := resolveChoice(sess, rawChoice, false)
	if err != nil {
		return SaveResult[T]{}, err
	}

	list, err := store.List(ctx, scope)
	if err != nil {
		return SaveResult[T]{}, err
	}
	var original T
	found := false
	for _, r := range list {
		if r.RecordID() == edited.RecordID() {
			original, found = r, true
			break
		}
	}
	if !found {
		return SaveResult[T]{}, ErrRecordNotFound
	}

	merged := original.Merge(edited)
	if apply {
		choice = choice.Resolve(original.AssignedStaffID())
		choice.Apply(PT(&merged))
	} else {
		// Keep the stored assignment but never resend a stale flag.
		PT(&merged).SetAssignment(original.AssignedStaffID(), false)
		choice = assignment.Of(original.AssignedStaffID())
	}

	updated, err := store.Update(ctx, merged, scope)
	if err != nil {
		return SaveResult[T]{}, err
	}
	if updated.RecordID() == 0 {
		updated = merged
	}

	reassigned := false
	if id, toStaff := choice.StaffID(); apply && toStaff {
		prev := original.AssignedStaffID()
		reassigned = prev == nil || *prev != id
	}
	slog.Info("record_event", "event", "updated", "kind", string(kind), "id", updated.RecordID(),
		"role", string(sess.Role), "assignment", choice.Value(), "reassigned", reassigned)
	return SaveResult[T]{Record: updated, Assignment: choice, Reassigned: reassigned}, nil
}
