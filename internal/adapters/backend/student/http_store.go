package student

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"admissions/internal/adapters/backend"
	domain "admissions/internal/domain/student"
)

// HTTPStore implements Store against the admissions REST API.
type HTTPStore struct {
	client *backend.Client
}

// NewHTTPStore creates a new HTTPStore.
func NewHTTPStore(client *backend.Client) *HTTPStore {
	return &HTTPStore{client: client}
}

// List returns the students visible to the scope.
// PRE: scope is "" (admin) or a usable staff id
// POST: Returns the backend's list in backend order
func (s *HTTPStore) List(ctx context.Context, scope string) ([]domain.Student, error) {
	var out []domain.Student
	if err := s.client.Do(ctx, http.MethodGet, CollectionPath, backend.Scope(scope), nil, &out); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return out, nil
}

// ListByStaff returns the students assigned to one staff member.
// PRE: staffID > 0
func (s *HTTPStore) ListByStaff(ctx context.Context, staffID int64) ([]domain.Student, error) {
	return s.List(ctx, strconv.FormatInt(staffID, 10))
}

// Create submits a new student record.
// PRE: record has been validated
// POST: Returns the record as stored by the backend
func (s *HTTPStore) Create(ctx context.Context, rec domain.Student) (domain.Student, error) {
	rec.ID = 0
	var out domain.Student
	if err := s.client.Do(ctx, http.MethodPost, CollectionPath, nil, rec, &out); err != nil {
		return domain.Student{}, fmt.Errorf("create student: %w", err)
	}
	return out, nil
}

// Update replaces the full record.
// PRE: rec.ID > 0; rec is the original merged with the edited fields
// POST: Returns the record as stored by the backend
func (s *HTTPStore) Update(ctx context.Context, rec domain.Student, scope string) (domain.Student, error) {
	var out domain.Student
	path := backend.ItemPath(CollectionPath, rec.ID)
	if err := s.client.Do(ctx, http.MethodPut, path, backend.Scope(scope), rec, &out); err != nil {
		return domain.Student{}, fmt.Errorf("update student %d: %w", rec.ID, err)
	}
	return out, nil
}

// Delete removes a student record.
// PRE: id > 0
func (s *HTTPStore) Delete(ctx context.Context, id int64, scope string) error {
	if err := s.client.Do(ctx, http.MethodDelete, backend.ItemPath(CollectionPath, id), backend.Scope(scope), nil, nil); err != nil {
		return fmt.Errorf("delete student %d: %w", id, err)
	}
	return nil
}
