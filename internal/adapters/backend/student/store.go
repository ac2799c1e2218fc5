package student

import (
	"context"

	domain "admissions/internal/domain/student"
)

// CollectionPath is the backend collection for student records.
const CollectionPath = "/api/submit/"

// Store reads and writes student records through the backend.
// scope is a staff id for staff sessions and "" for administrators.
type Store interface {
	List(ctx context.Context, scope string) ([]domain.Student, error)
	ListByStaff(ctx context.Context, staffID int64) ([]domain.Student, error)
	Create(ctx context.Context, s domain.Student) (domain.Student, error)
	Update(ctx context.Context, s domain.Student, scope string) (domain.Student, error)
	Delete(ctx context.Context, id int64, scope string) error
}
