package projections

import (
	"context"

	"admissions/internal/application/listutil"
	"admissions/internal/domain/enquiry"
	"admissions/internal/domain/record"
)

// EnquirySortColumns are the sortable enquiry columns.
var EnquirySortColumns = enquirySortKeys.Columns()

// EnquiryFilterKeys are the exact-match filters of the enquiry list.
var EnquiryFilterKeys = []string{"status"}

var enquirySortKeys = listutil.SortKeys[enquiry.Enquiry]{
	"name":   func(e enquiry.Enquiry) string { return e.Name },
	"place":  func(e enquiry.Enquiry) string { return e.Place },
	"status": func(e enquiry.Enquiry) string { return string(e.Status) },
	"staff":  func(e enquiry.Enquiry) string { return e.StaffLabel() },
}

// GetEnquiryListQuery carries query parameters.
type GetEnquiryListQuery struct {
	ListQuery
	Form *FormState[enquiry.Enquiry]
}

// GetEnquiryListDeps holds dependencies for GetEnquiryList.
type GetEnquiryListDeps struct {
	EnquiryStore EnquiryStore
	StaffStore   StaffStore
}

// QueryGetEnquiryList retrieves the enquiries visible to the session.
// PRE: query.Session is authenticated
// POST: Rows are the fetched enquiries passing search and status filters
// INVARIANT: A non-admin session without a usable staff id issues no fetch
func QueryGetEnquiryList(ctx context.Context, query GetEnquiryListQuery, deps GetEnquiryListDeps) (ListView[enquiry.Enquiry], error) {
	scope, ok := query.Session.Scope()
	if !ok {
		return ListView[enquiry.Enquiry]{Kind: record.KindEnquiries, Params: query.Params, Suppressed: true}, nil
	}

	enquiries, err := deps.EnquiryStore.List(ctx, scope)
	if err != nil {
		return ListView[enquiry.Enquiry]{}, err
	}

	view := buildList(query.ListQuery, enquiries, query.Form, listShape[enquiry.Enquiry]{
		kind: record.KindEnquiries,
		matches: func(e enquiry.Enquiry, fp listutil.FilterParams) bool {
			if st := fp.Filters["status"]; st != "" && string(e.Status) != st {
				return false
			}
			return e.Matches(fp.Search)
		},
		sortKeys:   enquirySortKeys,
		current:    func(e enquiry.Enquiry) *int64 { return e.AssignedStaff },
		label:      func(e enquiry.Enquiry) string { return e.StaffLabel() },
		assignable: assignableStaff(ctx, query.Session, deps.StaffStore),
	})
	return view, nil
}
