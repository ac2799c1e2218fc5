package enquiry

import (
	"context"

	domain "admissions/internal/domain/enquiry"
)

// CollectionPath is the backend collection for enquiry records.
const CollectionPath = "/api/enquiries/"

// Store reads and writes enquiry records through the backend.
// scope is a staff id for staff sessions and "" for administrators.
type Store interface {
	List(ctx context.Context, scope string) ([]domain.Enquiry, error)
	Create(ctx context.Context, e domain.Enquiry) (domain.Enquiry, error)
	Update(ctx context.Context, e domain.Enquiry, scope string) (domain.Enquiry, error)
	Delete(ctx context.Context, id int64, scope string) error
}
