package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// EquipmentOverview summarizes the equipment touched by one batch. Each
// distinct equipment unit is counted exactly once regardless of how many
// events reference it.
func (s *Service) EquipmentOverview(ctx context.Context, batchID string) (*EquipmentOverview, error) {
	b, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, apierr.Internal("load batch: %v", err)
	}
	if b == nil {
		return nil, apierr.NotFound("batch %s not found", batchID)
	}

	var events []model.EquipmentEvent
	if err := s.db.WithContext(ctx).
		Where("batch_id = ?", b.ID).
		Find(&events).Error; err != nil {
		return nil, apierr.Internal("load equipment events: %v", err)
	}

	eventCounts := make(map[string]int)
	equipmentIDs := []string{}
	for _, e := range events {
		if eventCounts[e.EquipmentID] == 0 {
			equipmentIDs = append(equipmentIDs, e.EquipmentID)
		}
		eventCounts[e.EquipmentID]++
	}

	overview := &EquipmentOverview{EquipmentTable: []EquipmentUsageRow{}}
	if len(equipmentIDs) == 0 {
		return overview, nil
	}

	var units []model.Equipment
	if err := s.db.WithContext(ctx).
		Where("id IN ?", equipmentIDs).
		Order("id").
		Find(&units).Error; err != nil {
		return nil, apierr.Internal("load equipment: %v", err)
	}

	var steps []model.ProcessStep
	if err := s.db.WithContext(ctx).
		Where("batch_id = ? AND equipment_id IN ?", b.ID, equipmentIDs).
		Order("step_sequence").
		Find(&steps).Error; err != nil {
		return nil, apierr.Internal("load process steps: %v", err)
	}
	usageByEquipment := make(map[string][]string)
	for _, st := range steps {
		usageByEquipment[st.EquipmentID] = append(usageByEquipment[st.EquipmentID],
			fmt.Sprintf("Step %d: %s", st.StepSequence, st.StepName))
	}

	for _, eq := range units {
		overview.SummaryMetrics.TotalEquipment++
		switch eq.Status {
		case model.EquipmentAvailable, model.EquipmentInUse:
			overview.SummaryMetrics.Operational++
		case model.EquipmentMaintenance, model.EquipmentFaulted:
			overview.SummaryMetrics.OpenIssues++
		}
		if eq.CalibrationStatus == model.CalibrationDue || eq.CalibrationStatus == model.CalibrationOverdue {
			overview.SummaryMetrics.CalibrationDue++
		}

		overview.EquipmentTable = append(overview.EquipmentTable, EquipmentUsageRow{
			Equipment:    eq,
			UsageInBatch: strings.Join(usageByEquipment[eq.ID], ", "),
			EventCount:   eventCounts[eq.ID],
		})
	}

	return overview, nil
}

// EquipmentDetail returns one equipment record with its full event history,
// newest first.
func (s *Service) EquipmentDetail(ctx context.Context, equipmentID string) (*EquipmentDetail, error) {
	var eq model.Equipment
	err := s.db.WithContext(ctx).Where("id = ?", equipmentID).First(&eq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("equipment %s not found", equipmentID)
		}
		return nil, apierr.Internal("load equipment: %v", err)
	}

	detail := &EquipmentDetail{Equipment: eq, History: []model.EquipmentEvent{}}
	if err := s.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Order("occurred_at DESC").
		Find(&detail.History).Error; err != nil {
		return nil, apierr.Internal("load equipment history: %v", err)
	}
	return detail, nil
}
