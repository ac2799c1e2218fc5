package projections

import (
	"context"

	"admissions/internal/domain/enquiry"
	"admissions/internal/domain/staff"
	"admissions/internal/domain/student"
)

// StudentStore interface for student queries.
type StudentStore interface {
	List(ctx context.Context, scope string) ([]student.Student, error)
}

// StudentsByStaffStore lists the students assigned to one staff member.
type StudentsByStaffStore interface {
	ListByStaff(ctx context.Context, staffID int64) ([]student.Student, error)
}

// EnquiryStore interface for enquiry queries.
type EnquiryStore interface {
	List(ctx context.Context, scope string) ([]enquiry.Enquiry, error)
}

// StaffStore interface for staff queries.
type StaffStore interface {
	List(ctx context.Context) ([]staff.Staff, error)
}
