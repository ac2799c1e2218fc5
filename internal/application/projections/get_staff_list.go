package projections

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"admissions/internal/domain/modal"
	"admissions/internal/domain/staff"
	"admissions/internal/domain/student"
)

// StaffPath is the portal path of the staff management page.
const StaffPath = "/staff"

// GetStaffListQuery carries query parameters.
type GetStaffListQuery struct {
	Search    string
	Modal     modal.Request
	FormToken string
	Form      *FormState[staff.Staff]
}

// StaffRow is one rendered staff row.
type StaffRow struct {
	Staff        staff.Staff
	Code         string
	Links        []staff.Link
	ViewHref     string
	EditHref     string
	DeleteHref   string
	StudentsHref string
}

// StaffListView is the rendered state of the staff page.
type StaffListView struct {
	Rows         []StaffRow
	Loaded       int
	Search       string
	Modal        modal.Modal
	ModalMissing bool
	AddHref      string
	CloseHref    string
}

// GetStaffListDeps holds dependencies for GetStaffList.
type GetStaffListDeps struct {
	StaffStore   StaffStore
	StudentStore StudentsByStaffStore
}

// QueryGetStaffList retrieves staff accounts for the admin page.
// PRE: the caller checked the session is an administrator
// POST: Codes follow backend order, so they do not shift when searching
func QueryGetStaffList(ctx context.Context, query GetStaffListQuery, deps GetStaffListDeps) (StaffListView, error) {
	list, err := deps.StaffStore.List(ctx)
	if err != nil {
		return StaffListView{}, err
	}

	search := strings.TrimSpace(query.Search)
	base := url.Values{}
	if search != "" {
		base.Set("q", search)
	}
	view := StaffListView{
		Loaded:    len(list),
		Search:    search,
		AddHref:   href(StaffPath, base, modal.Request{Kind: modal.KindAdd}.Query()),
		CloseHref: href(StaffPath, base),
	}

	needle := strings.ToLower(search)
	for i, s := range list {
		if needle != "" && !strings.Contains(strings.ToLower(s.Name+" "+s.Email+" "+s.LoginID+" "+s.Phone), needle) {
			continue
		}
		rowHref := func(k modal.Kind) string {
			return href(StaffPath, base, modal.Request{Kind: k, ID: s.ID}.Query())
		}
		view.Rows = append(view.Rows, StaffRow{
			Staff:        s,
			Code:         staff.DisplayCode(i),
			Links:        s.Links(),
			ViewHref:     rowHref(modal.KindView),
			EditHref:     rowHref(modal.KindEdit),
			DeleteHref:   rowHref(modal.KindDelete),
			StudentsHref: rowHref(modal.KindAssignedStudents),
		})
	}

	req := query.Modal
	var target staff.Staff
	if req.Kind.NeedsID() {
		var ok bool
		if target, ok = staff.Find(list, req.ID); !ok {
			view.ModalMissing = true
			return view, nil
		}
	}

	switch req.Kind {
	case modal.KindAdd:
		m := modal.Add[staff.Staff]{FormToken: query.FormToken, Draft: staff.Staff{ActiveStatus: true}}
		if query.Form != nil {
			m.Draft, m.Errors = query.Form.Draft, query.Form.Errors
		}
		view.Modal = m
	case modal.KindEdit:
		m := modal.Edit[staff.Staff]{Record: target, FormToken: query.FormToken}
		if query.Form != nil {
			m.Record, m.Errors = query.Form.Draft, query.Form.Errors
		}
		view.Modal = m
	case modal.KindView:
		view.Modal = modal.View[staff.Staff]{Record: target}
	case modal.KindDelete:
		view.Modal = modal.Delete[staff.Staff]{Record: target, FormToken: query.FormToken}
	case modal.KindAssignedStudents:
		students, err := deps.StudentStore.ListByStaff(ctx, target.ID)
		if err != nil {
			return StaffListView{}, fmt.Errorf("students of staff %d: %w", target.ID, err)
		}
		view.Modal = modal.AssignedStudents[staff.Staff, student.Student]{Staff: target, Students: students}
	case modal.KindSuccess:
		view.Modal = modal.Success{Message: modal.SuccessMessage("staff member", req.Done)}
	}
	return view, nil
}
