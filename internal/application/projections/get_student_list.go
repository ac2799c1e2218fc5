package projections

import (
	"context"

	"admissions/internal/application/listutil"
	"admissions/internal/domain/record"
	"admissions/internal/domain/student"
)

// StudentSortColumns are the sortable student columns.
var StudentSortColumns = studentSortKeys.Columns()

// StudentFilterKeys are the exact-match filters of the student list.
var StudentFilterKeys = []string{"status"}

var studentSortKeys = listutil.SortKeys[student.Student]{
	"name":    func(s student.Student) string { return s.FullName() },
	"course":  func(s student.Student) string { return s.CourseSelected },
	"college": func(s student.Student) string { return s.CollegeSelected },
	"status":  func(s student.Student) string { return string(s.Status) },
	"staff":   func(s student.Student) string { return s.StaffLabel() },
}

// GetStudentListQuery carries query parameters.
type GetStudentListQuery struct {
	ListQuery
	// Form is set when a rejected add or edit form is shown again.
	Form *FormState[student.Student]
}

// GetStudentListDeps holds dependencies for GetStudentList.
type GetStudentListDeps struct {
	StudentStore StudentStore
	StaffStore   StaffStore
}

// QueryGetStudentList retrieves the students visible to the session.
// PRE: query.Session is authenticated
// POST: Rows are the fetched students passing search and status filters
// INVARIANT: A non-admin session without a usable staff id issues no fetch
func QueryGetStudentList(ctx context.Context, query GetStudentListQuery, deps GetStudentListDeps) (ListView[student.Student], error) {
	scope, ok := query.Session.Scope()
	if !ok {
		return ListView[student.Student]{Kind: record.KindStudents, Params: query.Params, Suppressed: true}, nil
	}

	students, err := deps.StudentStore.List(ctx, scope)
	if err != nil {
		return ListView[student.Student]{}, err
	}

	view := buildList(query.ListQuery, students, query.Form, listShape[student.Student]{
		kind: record.KindStudents,
		matches: func(s student.Student, fp listutil.FilterParams) bool {
			if st := fp.Filters["status"]; st != "" && string(s.Status) != st {
				return false
			}
			return s.Matches(fp.Search)
		},
		sortKeys:   studentSortKeys,
		current:    func(s student.Student) *int64 { return s.AssignedStaff },
		label:      func(s student.Student) string { return s.StaffLabel() },
		assignable: assignableStaff(ctx, query.Session, deps.StaffStore),
	})
	return view, nil
}
