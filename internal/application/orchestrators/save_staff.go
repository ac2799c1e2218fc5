package orchestrators

import (
	"context"
	"log/slog"

	"admissions/internal/domain/session"
	"admissions/internal/domain/staff"
)

// StaffStoreForSave defines the store interface needed to manage staff.
type StaffStoreForSave interface {
	List(ctx context.Context) ([]staff.Staff, error)
	Create(ctx context.Context, s staff.Staff) (staff.Staff, error)
	Update(ctx context.Context, s staff.Staff) (staff.Staff, error)
	Delete(ctx context.Context, id int64) error
}

// SaveStaffInput carries the staff form. Staff.ID == 0 creates.
type SaveStaffInput struct {
	Session session.Context
	Staff   staff.Staff
}

// SaveStaffDeps holds dependencies for staff management.
type SaveStaffDeps struct {
	StaffStore StaffStoreForSave
}

// ExecuteSaveStaff creates or updates a staff account.
// PRE: input.Session is an administrator
// POST: On update a blank password is omitted so the backend keeps the current one
func ExecuteSaveStaff(ctx context.Context, input SaveStaffInput, deps SaveStaffDeps) (staff.Staff, error) {
	if !input.Session.IsAdmin() {
		return staff.Staff{}, ErrNotAdmin
	}
	creating := input.Staff.ID == 0
	if fe := input.Staff.Validate(creating); fe != nil {
		return staff.Staff{}, invalid(fe)
	}

	if creating {
		created, err := deps.StaffStore.Create(ctx, input.Staff)
		if err != nil {
			return staff.Staff{}, err
		}
		slog.Info("staff_event", "event", "created", "id", created.ID, "login_id", input.Staff.LoginID)
		return created, nil
	}

	original, err := findStaff(ctx, deps.StaffStore, input.Staff.ID)
	if err != nil {
		return staff.Staff{}, err
	}
	updated, err := deps.StaffStore.Update(ctx, original.Merge(input.Staff))
	if err != nil {
		return staff.Staff{}, err
	}
	slog.Info("staff_event", "event", "updated", "id", input.Staff.ID, "password_changed", input.Staff.Password != "")
	return updated, nil
}

// DeleteStaffInput names the account to delete.
type DeleteStaffInput struct {
	Session session.Context
	ID      int64
}

// ExecuteDeleteStaff deletes a staff account. The backend redistributes
// the account's students to the remaining staff.
// PRE: input.Session is an administrator
func ExecuteDeleteStaff(ctx context.Context, input DeleteStaffInput, deps SaveStaffDeps) error {
	if !input.Session.IsAdmin() {
		return ErrNotAdmin
	}
	if err := deps.StaffStore.Delete(ctx, input.ID); err != nil {
		return err
	}
	slog.Info("staff_event", "event", "deleted", "id", input.ID)
	return nil
}

// StaffLinkInput carries a document link edit.
type StaffLinkInput struct {
	Session session.Context
	StaffID int64
	Label   string
	URL     string // ignored when removing
}

// ExecuteAddStaffLink adds or replaces a document link on a staff account.
// PRE: input.Session is an administrator
// POST: The stored account carries the link; other fields are unchanged
func ExecuteAddStaffLink(ctx context.Context, input StaffLinkInput, deps SaveStaffDeps) (staff.Staff, error) {
	return editLinks(ctx, input, deps, func(s *staff.Staff) error {
		return s.AddLink(input.Label, input.URL)
	})
}

// ExecuteRemoveStaffLink removes a document link from a staff account.
// PRE: input.Session is an administrator; the label exists
func ExecuteRemoveStaffLink(ctx context.Context, input StaffLinkInput, deps SaveStaffDeps) (staff.Staff, error) {
	return editLinks(ctx, input, deps, func(s *staff.Staff) error {
		return s.RemoveLink(input.Label)
	})
}

func editLinks(ctx context.Context, input StaffLinkInput, deps SaveStaffDeps, edit func(*staff.Staff) error) (staff.Staff, error) {
	if !input.Session.IsAdmin() {
		return staff.Staff{}, ErrNotAdmin
	}
	current, err := findStaff(ctx, deps.StaffStore, input.StaffID)
	if err != nil {
		return staff.Staff{}, err
	}
	if err := edit(&current); err != nil {
		return staff.Staff{}, err
	}
	updated, err := deps.StaffStore.Update(ctx, current)
	if err != nil {
		return staff.Staff{}, err
	}
	slog.Info("staff_event", "event", "links_updated", "id", input.StaffID, "links", len(current.DocumentLinks))
	return updated, nil
}

func findStaff(ctx context.Context, store StaffLister, id int64) (staff.Staff, error) {
	list, err := store.List(ctx)
	if err != nil {
		return staff.Staff{}, err
	}
	s, ok := staff.Find(list, id)
	if !ok {
		return staff.Staff{}, ErrRecordNotFound
	}
	return s, nil
}
