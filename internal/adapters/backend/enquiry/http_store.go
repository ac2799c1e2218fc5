package enquiry

import (
	"context"
	"fmt"
	"net/http"

	"admissions/internal/adapters/backend"
	domain "admissions/internal/domain/enquiry"
)

// HTTPStore implements Store against the admissions REST API.
type HTTPStore struct {
	client *backend.Client
}

// NewHTTPStore creates a new HTTPStore.
func NewHTTPStore(client *backend.Client) *HTTPStore {
	return &HTTPStore{client: client}
}

// List returns the enquiries visible to the scope.
// PRE: scope is "" (admin) or a usable staff id
func (s *HTTPStore) List(ctx context.Context, scope string) ([]domain.Enquiry, error) {
	var out []domain.Enquiry
	if err := s.client.Do(ctx, http.MethodGet, CollectionPath, backend.Scope(scope), nil, &out); err != nil {
		return nil, fmt.Errorf("list enquiries: %w", err)
	}
	return out, nil
}

// Create submits a new enquiry.
func (s *HTTPStore) Create(ctx context.Context, e domain.Enquiry) (domain.Enquiry, error) {
	e.ID = 0
	var out domain.Enquiry
	if err := s.client.Do(ctx, http.MethodPost, CollectionPath, nil, e, &out); err != nil {
		return domain.Enquiry{}, fmt.Errorf("create enquiry: %w", err)
	}
	return out, nil
}

// Update replaces the full enquiry.
// PRE: e.ID > 0
func (s *HTTPStore) Update(ctx context.Context, e domain.Enquiry, scope string) (domain.Enquiry, error) {
	var out domain.Enquiry
	if err := s.client.Do(ctx, http.MethodPut, backend.ItemPath(CollectionPath, e.ID), backend.Scope(scope), e, &out); err != nil {
		return domain.Enquiry{}, fmt.Errorf("update enquiry %d: %w", e.ID, err)
	}
	return out, nil
}

// Delete removes an enquiry.
func (s *HTTPStore) Delete(ctx context.Context, id int64, scope string) error {
	if err := s.client.Do(ctx, http.MethodDelete, backend.ItemPath(CollectionPath, id), backend.Scope(scope), nil, nil); err != nil {
		return fmt.Errorf("delete enquiry %d: %w", id, err)
	}
	return nil
}
