package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"admissions/internal/domain/bulk"
	"admissions/internal/domain/record"
	"admissions/internal/domain/session"
)

// RecordDeleter deletes one record within a scope. Both record stores satisfy it.
type RecordDeleter interface {
	Delete(ctx context.Context, id int64, scope string) error
}

// DeleteRecordInput names the record to delete.
type DeleteRecordInput struct {
	Session session.Context
	Kind    record.Kind
	ID      int64
}

// DeleteRecordDeps holds dependencies for single and bulk deletes.
type DeleteRecordDeps struct {
	Records RecordDeleter
}

// ErrEmptySelection is returned for a bulk delete with nothing selected.
var ErrEmptySelection = errors.New("No records selected.")

// ExecuteDeleteRecord deletes one record.
// PRE: input.ID > 0
// POST: The backend no longer holds the record, or an error is returned
func ExecuteDeleteRecord(ctx context.Context, input DeleteRecordInput, deps DeleteRecordDeps) error {
	scope, ok := input.Session.Scope()
	if !ok {
		return ErrNoScope
	}
	if err := deps.Records.Delete(ctx, input.ID, scope); err != nil {
		return err
	}
	slog.Info("record_event", "event", "deleted", "kind", string(input.Kind), "id", input.ID, "role", string(input.Session.Role))
	return nil
}

const (
	// BulkDeleteLimit bounds the number of deletes in flight at once.
	BulkDeleteLimit = 8
	// MaxBulkDelete caps the ids one bulk delete accepts.
	MaxBulkDelete = 64
)

// ErrSelectionTooLarge is returned for a bulk delete over MaxBulkDelete ids.
var ErrSelectionTooLarge = fmt.Errorf("Select at most %d records to delete at once.", MaxBulkDelete)

// BulkDeleteBudget is the longest a full batch takes when every call runs
// for perCall.
func BulkDeleteBudget(perCall time.Duration) time.Duration {
	waves := (MaxBulkDelete + BulkDeleteLimit - 1) / BulkDeleteLimit
	return time.Duration(waves) * perCall
}

// BulkDeleteInput names the selected records.
type BulkDeleteInput struct {
	Session session.Context
	Kind    record.Kind
	IDs     []int64
}

// ExecuteBulkDelete deletes every selected record, best-effort.
// PRE: input.IDs holds distinct identifiers
// POST: A selection over MaxBulkDelete is refused before any call; otherwise every id was attempted exactly once and has an outcome in the report
// INVARIANT: One failing delete never cancels its siblings
func ExecuteBulkDelete(ctx context.Context, input BulkDeleteInput, deps DeleteRecordDeps) (bulk.Report, error) {
	scope, ok := input.Session.Scope()
	if !ok {
		return bulk.Report{}, ErrNoScope
	}
	if len(input.IDs) == 0 {
		return bulk.Report{}, ErrEmptySelection
	}
	if len(input.IDs) > MaxBulkDelete {
		return bulk.Report{}, ErrSelectionTooLarge
	}

	var (
		mu     sync.Mutex
		report bulk.Report
		g      errgroup.Group
	)
	g.SetLimit(BulkDeleteLimit)
	for _, id := range input.IDs {
		g.Go(func() error {
			err := deps.Records.Delete(ctx, id, scope)
			if err != nil {
				slog.Warn("record_event", "event", "delete_failed", "kind", string(input.Kind), "id", id, "error", err)
			}
			mu.Lock()
			report.Record(id, err)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("record_event", "event", "bulk_deleted", "kind", string(input.Kind),
		"requested", report.Total(), "failed", len(report.Failed()), "role", string(input.Session.Role))
	return report, nil
}
