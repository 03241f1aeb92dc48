package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pharmatrace/batch-registry/pkg/model"
)

// Store provides batch persistence and the release-related lookups.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new batch Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the manufacturing record tables.
func (s *Store) AutoMigrate() error {
	models := []any{
		&model.Customer{},
		&model.Project{},
		&model.Batch{},
		&model.BatchComponent{},
		&model.ProcessStep{},
		&model.Sample{},
		&model.TestResult{},
		&model.Deviation{},
		&model.CAPA{},
		&model.Equipment{},
		&model.EquipmentEvent{},
	}
	for _, m := range models {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate batch tables: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying handle for read-only aggregation services.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Get retrieves a batch by generated id or by its human api_batch_id.
// Returns nil, nil when not found.
func (s *Store) Get(ctx context.Context, id string) (*model.Batch, error) {
	var batch model.Batch
	err := s.db.WithContext(ctx).
		Where("id = ? OR api_batch_id = ?", id, id).
		First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &batch, nil
}

// CountOpenDeviations counts deviations for the batch with status Open or
// In-Progress.
func (s *Store) CountOpenDeviations(ctx context.Context, batchID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Deviation{}).
		Where("batch_id = ? AND status IN ?", batchID, []string{model.DeviationOpen, model.DeviationInProgress}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count open deviations: %w", err)
	}
	return count, nil
}

// CountPendingTests counts test results over the batch's samples with result
// Pending or In-Progress.
func (s *Store) CountPendingTests(ctx context.Context, batchID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.TestResult{}).
		Joins("JOIN samples ON samples.id = test_results.sample_id").
		Where("samples.batch_id = ? AND test_results.result IN ?", batchID,
			[]string{model.ResultPending, model.ResultInProgress}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count pending tests: %w", err)
	}
	return count, nil
}

// MarkReleased performs the atomic release transition: a single conditional
// update guarded on the current status, so concurrent callers produce
// exactly one winner. Returns false when the batch was already released.
func (s *Store) MarkReleased(ctx context.Context, batchID, releasedBy, notes string) (bool, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&model.Batch{}).
		Where("id = ? AND status <> ?", batchID, model.BatchReleased).
		Updates(map[string]any{
			"status":        model.BatchReleased,
			"released_at":   now,
			"released_by":   releasedBy,
			"release_notes": notes,
			"updated_at":    now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark released: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// UpdateStatus sets the batch status. Release transitions must go through
// MarkReleased instead so the released_at/released_by stamps stay tied to
// the Released status.
func (s *Store) UpdateStatus(ctx context.Context, batchID string, status model.BatchStatus) error {
	res := s.db.WithContext(ctx).
		Model(&model.Batch{}).
		Where("id = ?", batchID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResolveNames returns the customer and project names for a batch.
func (s *Store) ResolveNames(ctx context.Context, b *model.Batch) (customerName, projectName string, err error) {
	var customer model.Customer
	if err := s.db.WithContext(ctx).Select("name").Where("id = ?", b.CustomerID).First(&customer).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", fmt.Errorf("resolve customer name: %w", err)
	}
	var project model.Project
	if err := s.db.WithContext(ctx).Select("name").Where("id = ?", b.ProjectID).First(&project).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", fmt.Errorf("resolve project name: %w", err)
	}
	return customer.Name, project.Name, nil
}
