// Package reporting computes read-only cross-entity views: batch summaries,
// dashboards, genealogy, lineage, and equipment usage. Nothing here mutates
// state; aggregation is explicit repository reads joined in process.
package reporting

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pharmatrace/batch-registry/pkg/model"
)

// Service answers all reporting queries over the shared database handle.
type Service struct {
	db *gorm.DB
}

// NewService creates a reporting service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// displayStatus maps a raw batch status to its display label and color.
func displayStatus(s model.BatchStatus) (label, color string) {
	switch s {
	case model.BatchInProcess:
		return "In Progress", "yellow"
	case model.BatchOnHold:
		return "QA Hold", "gray"
	case model.BatchReleased:
		return "Released", "green"
	case model.BatchCompleted:
		return "Completed", "orange"
	default:
		return "Not Started", "blue"
	}
}

// bucket adds one batch to the display-status summary counts.
func (c *SummaryCounts) bucket(s model.BatchStatus) {
	switch label, _ := displayStatus(s); label {
	case "In Progress":
		c.InProgress++
	case "QA Hold":
		c.QAHold++
	case "Released":
		c.Released++
	case "Completed":
		c.Completed++
	default:
		c.NotStarted++
	}
}

// getBatch resolves a batch by generated id or api_batch_id.
// Returns nil, nil when not found.
func (s *Service) getBatch(ctx context.Context, id string) (*model.Batch, error) {
	var b model.Batch
	err := s.db.WithContext(ctx).Where("id = ? OR api_batch_id = ?", id, id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}
