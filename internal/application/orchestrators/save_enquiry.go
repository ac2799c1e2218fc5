package orchestrators

import (
	"context"
	"log/slog"

	"admissions/internal/domain/enquiry"
	"admissions/internal/domain/record"
	"admissions/internal/domain/session"
)

// EnquiryStoreForSave defines the store interface needed to save enquiries.
type EnquiryStoreForSave interface {
	List(ctx context.Context, scope string) ([]enquiry.Enquiry, error)
	Create(ctx context.Context, e enquiry.Enquiry) (enquiry.Enquiry, error)
	Update(ctx context.Context, e enquiry.Enquiry, scope string) (enquiry.Enquiry, error)
}

// SaveEnquiryInput carries the edited form.
type SaveEnquiryInput struct {
	Session    session.Context
	Enquiry    enquiry.Enquiry
	Assignment string
}

// SaveEnquiryDeps holds dependencies for creating and updating enquiries.
type SaveEnquiryDeps struct {
	EnquiryStore EnquiryStoreForSave
	Notify       *NotifyAssignmentDeps
}

// ExecuteCreateEnquiry validates and submits a new enquiry.
func ExecuteCreateEnquiry(ctx context.Context, input SaveEnquiryInput, deps SaveEnquiryDeps) (SaveResult[enquiry.Enquiry], error) {
	res, err := createRecord(ctx, record.KindEnquiries, input.Session, input.Enquiry, input.Assignment, deps.EnquiryStore)
	if err != nil {
		return res, err
	}
	if res.Reassigned {
		notifyEnquiry(ctx, res.Record, deps.Notify)
	}
	return res, nil
}

// ExecuteUpdateEnquiry merges the edited fields over the stored enquiry and submits it.
// PRE: input.Enquiry.ID > 0
func ExecuteUpdateEnquiry(ctx context.Context, input SaveEnquiryInput, deps SaveEnquiryDeps) (SaveResult[enquiry.Enquiry], error) {
	res, err := updateRecord(ctx, record.KindEnquiries, input.Session, input.Enquiry, input.Assignment, deps.EnquiryStore)
	if err != nil {
		return res, err
	}
	if res.Reassigned {
		notifyEnquiry(ctx, res.Record, deps.Notify)
	}
	return res, nil
}

func notifyEnquiry(ctx context.Context, e enquiry.Enquiry, deps *NotifyAssignmentDeps) {
	if deps == nil || e.AssignedStaff == nil {
		return
	}
	in := NotifyAssignmentInput{
		StaffID:    *e.AssignedStaff,
		Kind:       record.KindEnquiries,
		RecordName: e.Name,
		Detail:     e.Snippet(),
	}
	if err := ExecuteNotifyAssignment(ctx, in, *deps); err != nil {
		slog.Warn("notify_failed", "kind", "enquiries", "id", e.ID, "error", err)
	}
}
