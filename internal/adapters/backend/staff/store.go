package staff

import (
	"context"

	domain "admissions/internal/domain/staff"
)

// CollectionPath is the backend collection for staff accounts.
const CollectionPath = "/api/staff/"

// Store manages staff accounts through the backend. Only administrators
// reach these calls.
type Store interface {
	List(ctx context.Context) ([]domain.Staff, error)
	Create(ctx context.Context, s domain.Staff) (domain.Staff, error)
	Update(ctx context.Context, s domain.Staff) (domain.Staff, error)
	Delete(ctx context.Context, id int64) error
}
