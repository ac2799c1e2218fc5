package orchestrators

import (
	"context"
	"log/slog"

	"admissions/internal/domain/record"
	"admissions/internal/domain/session"
	"admissions/internal/domain/student"
)

// StudentStoreForSave defines the store interface needed to save students.
type StudentStoreForSave interface {
	List(ctx context.Context, scope string) ([]student.Student, error)
	Create(ctx context.Context, s student.Student) (student.Student, error)
	Update(ctx context.Context, s student.Student, scope string) (student.Student, error)
}

// SaveStudentInput carries the edited form.
type SaveStudentInput struct {
	Session    session.Context
	Student    student.Student
	Assignment string // raw selector value; only read for administrators
}

// SaveStudentDeps holds dependencies for creating and updating students.
type SaveStudentDeps struct {
	StudentStore StudentStoreForSave
	// Notify is optional; when set, assigned staff get an email.
	Notify *NotifyAssignmentDeps
}

// ExecuteCreateStudent validates and submits a new student.
// PRE: input.Session is authenticated
// POST: The backend holds the new record; an administrator's assignment
// choice is applied, other roles assign to themselves
func ExecuteCreateStudent(ctx context.Context, input SaveStudentInput, deps SaveStudentDeps) (SaveResult[student.Student], error) {
	res, err := createRecord(ctx, record.KindStudents, input.Session, input.Student, input.Assignment, deps.StudentStore)
	if err != nil {
		return res, err
	}
	if res.Reassigned {
		notifyStudent(ctx, res.Record, deps.Notify)
	}
	return res, nil
}

// ExecuteUpdateStudent merges the edited fields over the stored student and submits it.
// PRE: input.Student.ID > 0
// POST: The backend holds the full merged record
func ExecuteUpdateStudent(ctx context.Context, input SaveStudentInput, deps SaveStudentDeps) (SaveResult[student.Student], error) {
	res, err := updateRecord(ctx, record.KindStudents, input.Session, input.Student, input.Assignment, deps.StudentStore)
	if err != nil {
		return res, err
	}
	if res.Reassigned {
		notifyStudent(ctx, res.Record, deps.Notify)
	}
	return res, nil
}

func notifyStudent(ctx context.Context, s student.Student, deps *NotifyAssignmentDeps) {
	if deps == nil || s.AssignedStaff == nil {
		return
	}
	in := NotifyAssignmentInput{
		StaffID:    *s.AssignedStaff,
		Kind:       record.KindStudents,
		RecordName: s.FullName(),
		Detail:     s.CourseSelected,
	}
	if err := ExecuteNotifyAssignment(ctx, in, *deps); err != nil {
		slog.Warn("notify_failed", "kind", "students", "id", s.ID, "error", err)
	}
}
