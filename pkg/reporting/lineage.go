package reporting

import (
	"context"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// BatchLineage traces the batch upstream and downstream: parentMaterials are
// its own components; childBatches are batches whose components name this
// batch's api_batch_id as their component_batch_id.
func (s *Service) BatchLineage(ctx context.Context, batchID string) (*BatchLineage, error) {
	b, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, apierr.Internal("load batch: %v", err)
	}
	if b == nil {
		return nil, apierr.NotFound("batch %s not found", batchID)
	}

	lineage := &BatchLineage{
		CurrentBatch:    b,
		ParentMaterials: []model.BatchComponent{},
		ChildBatches:    []model.Batch{},
	}

	if err := s.db.WithContext(ctx).
		Where("batch_id = ?", b.ID).
		Find(&lineage.ParentMaterials).Error; err != nil {
		return nil, apierr.Internal("load parent materials: %v", err)
	}

	var childIDs []string
	err = s.db.WithContext(ctx).
		Model(&model.BatchComponent{}).
		Distinct("batch_id").
		Where("component_batch_id = ? AND batch_id <> ?", b.APIBatchID, b.ID).
		Pluck("batch_id", &childIDs).Error
	if err != nil {
		return nil, apierr.Internal("find child batches: %v", err)
	}
	if len(childIDs) > 0 {
		if err := s.db.WithContext(ctx).
			Where("id IN ?", childIDs).
			Order("api_batch_id").
			Find(&lineage.ChildBatches).Error; err != nil {
			return nil, apierr.Internal("load child batches: %v", err)
		}
	}

	return lineage, nil
}
