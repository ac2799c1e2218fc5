package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"admissions/internal/adapters/email"
	"admissions/internal/domain/record"
	"admissions/internal/domain/staff"
)

// StaffLister lists staff accounts.
type StaffLister interface {
	List(ctx context.Context) ([]staff.Staff, error)
}

// NotifyAssignmentInput names the record that was assigned.
type NotifyAssignmentInput struct {
	StaffID    int64
	Kind       record.Kind
	RecordName string
	Detail     string
}

// NotifyAssignmentDeps holds dependencies for assignment notices.
type NotifyAssignmentDeps struct {
	StaffStore StaffLister
	Sender     email.Sender
	PortalURL  string // base URL used for the link in the email; may be empty
}

// ErrStaffNotNotifiable is returned when the assignee is unknown, inactive or has no email.
var ErrStaffNotNotifiable = errors.New("assigned staff member cannot be notified")

// ExecuteNotifyAssignment emails the staff member a record was assigned to.
// PRE: input.StaffID > 0
// POST: One message is handed to the sender, or an error explains why not
func ExecuteNotifyAssignment(ctx context.Context, input NotifyAssignmentInput, deps NotifyAssignmentDeps) error {
	if deps.Sender == nil || deps.StaffStore == nil {
		return nil
	}
	list, err := deps.StaffStore.List(ctx)
	if err != nil {
		return fmt.Errorf("load staff for notice: %w", err)
	}
	member, ok := staff.Find(list, input.StaffID)
	if !ok || !member.ActiveStatus || strings.TrimSpace(member.Email) == "" {
		return fmt.Errorf("%w: staff %d", ErrStaffNotNotifiable, input.StaffID)
	}

	link := ""
	if deps.PortalURL != "" {
		link = strings.TrimRight(deps.PortalURL, "/") + input.Kind.Path()
	}
	req, err := email.AssignmentNotice{
		StaffName:  member.Name,
		StaffEmail: member.Email,
		RecordKind: input.Kind.Singular(),
		RecordName: input.RecordName,
		Detail:     input.Detail,
		Link:       link,
	}.Request()
	if err != nil {
		return err
	}

	res, err := deps.Sender.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("send assignment notice: %w", err)
	}
	slog.Info("email_sent", "kind", "assignment_notice", "staff_id", member.ID, "message_id", res.MessageID)
	return nil
}
