package orchestrators

import (
	"context"
	"errors"
	"sync"
	"time"

	"admissions/internal/adapters/backend/auth"
	"admissions/internal/domain/enquiry"
	"admissions/internal/domain/session"
	"admissions/internal/domain/staff"
	"admissions/internal/domain/student"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

var (
	adminSession = session.Context{Role: session.RoleAdmin, StaffName: "Michael", CreatedAt: fixedTime}
	staffSession = session.Context{Role: session.RoleStaff, StaffID: "7", StaffName: "Pam", CreatedAt: fixedTime}
	nullSession  = session.Context{Role: session.RoleStaff, StaffID: "null", CreatedAt: fixedTime}
)

func ptr(n int64) *int64 { return &n }

// mockGateway implements auth.Gateway and counts calls.
type mockGateway struct {
	identity auth.Identity
	err      error
	calls    int
}

func (m *mockGateway) Login(_ context.Context, _, _ string) (auth.Identity, error) {
	m.calls++
	return m.identity, m.err
}

// mockSessions implements SessionStoreForLogin.
type mockSessions struct {
	created []session.Context
	deleted []string
}

func (m *mockSessions) Create(_ context.Context, sc session.Context) (string, error) {
	m.created = append(m.created, sc)
	return "token-1", nil
}

func (m *mockSessions) Delete(_ context.Context, token string) error {
	m.deleted = append(m.deleted, token)
	return nil
}

// mockStudentStore implements StudentStoreForSave and RecordDeleter.
type mockStudentStore struct {
	mu         sync.Mutex
	students   []student.Student
	listScopes []string
	created    []student.Student
	updated    []student.Student
	updScopes  []string
	deleted    []int64
	failDelete map[int64]bool
	err        error
}

func (m *mockStudentStore) List(_ context.Context, scope string) ([]student.Student, error) {
	m.listScopes = append(m.listScopes, scope)
	if m.err != nil {
		return nil, m.err
	}
	return append([]student.Student(nil), m.students...), nil
}

func (m *mockStudentStore) Create(_ context.Context, s student.Student) (student.Student, error) {
	if m.err != nil {
		return student.Student{}, m.err
	}
	m.created = append(m.created, s)
	s.ID = 100
	return s, nil
}

func (m *mockStudentStore) Update(_ context.Context, s student.Student, scope string) (student.Student, error) {
	if m.err != nil {
		return student.Student{}, m.err
	}
	m.updated = append(m.updated, s)
	m.updScopes = append(m.updScopes, scope)
	return s, nil
}

func (m *mockStudentStore) Delete(_ context.Context, id int64, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete[id] {
		return errors.New("backend said no")
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// mockEnquiryStore implements EnquiryStoreForSave.
type mockEnquiryStore struct {
	enquiries []enquiry.Enquiry
	created   []enquiry.Enquiry
	updated   []enquiry.Enquiry
}

func (m *mockEnquiryStore) List(_ context.Context, _ string) ([]enquiry.Enquiry, error) {
	return m.enquiries, nil
}

func (m *mockEnquiryStore) Create(_ context.Context, e enquiry.Enquiry) (enquiry.Enquiry, error) {
	m.created = append(m.created, e)
	e.ID = 200
	return e, nil
}

func (m *mockEnquiryStore) Update(_ context.Context, e enquiry.Enquiry, _ string) (enquiry.Enquiry, error) {
	m.updated = append(m.updated, e)
	return e, nil
}

// mockStaffStore implements StaffStoreForSave.
type mockStaffStore struct {
	staff   []staff.Staff
	created []staff.Staff
	updated []staff.Staff
	deleted []int64
	lists   int
}

func (m *mockStaffStore) List(_ context.Context) ([]staff.Staff, error) {
	m.lists++
	out := make([]staff.Staff, len(m.staff))
	for i, s := range m.staff {
		if s.DocumentLinks != nil {
			links := make(map[string]string, len(s.DocumentLinks))
			for k, v := range s.DocumentLinks {
				links[k] = v
			}
			s.DocumentLinks = links
		}
		out[i] = s
	}
	return out, nil
}

func (m *mockStaffStore) Create(_ context.Context, s staff.Staff) (staff.Staff, error) {
	m.created = append(m.created, s)
	s.ID = 9
	s.Password = ""
	return s, nil
}

func (m *mockStaffStore) Update(_ context.Context, s staff.Staff) (staff.Staff, error) {
	m.updated = append(m.updated, s)
	return s, nil
}

func (m *mockStaffStore) Delete(_ context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}
