package staff

import (
	"context"
	"fmt"
	"net/http"

	"admissions/internal/adapters/backend"
	domain "admissions/internal/domain/staff"
)

// HTTPStore implements Store against the admissions REST API.
type HTTPStore struct {
	client *backend.Client
}

// NewHTTPStore creates a new HTTPStore.
func NewHTTPStore(client *backend.Client) *HTTPStore {
	return &HTTPStore{client: client}
}

// List returns every staff account with its current student count.
func (s *HTTPStore) List(ctx context.Context) ([]domain.Staff, error) {
	var out []domain.Staff
	if err := s.client.Do(ctx, http.MethodGet, CollectionPath, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return out, nil
}

// Create adds a staff account.
// PRE: st.Password is set
func (s *HTTPStore) Create(ctx context.Context, st domain.Staff) (domain.Staff, error) {
	st.ID = 0
	st.StudentCount = 0
	var out domain.Staff
	if err := s.client.Do(ctx, http.MethodPost, CollectionPath, nil, st, &out); err != nil {
		return domain.Staff{}, fmt.Errorf("create staff: %w", err)
	}
	return out, nil
}

// Update replaces a staff account. A blank password is left out of the
// body so the backend keeps the current one.
// PRE: st.ID > 0
func (s *HTTPStore) Update(ctx context.Context, st domain.Staff) (domain.Staff, error) {
	var out domain.Staff
	if err := s.client.Do(ctx, http.MethodPut, backend.ItemPath(CollectionPath, st.ID), nil, st.ForUpdate(), &out); err != nil {
		return domain.Staff{}, fmt.Errorf("update staff %d: %w", st.ID, err)
	}
	return out, nil
}

// Delete removes a staff account. The backend redistributes its records.
func (s *HTTPStore) Delete(ctx context.Context, id int64) error {
	if err := s.client.Do(ctx, http.MethodDelete, backend.ItemPath(CollectionPath, id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete staff %d: %w", id, err)
	}
	return nil
}
