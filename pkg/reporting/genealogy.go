package reporting

import (
	"context"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// componentDescription derives the human description for a component type.
func componentDescription(componentType string) string {
	switch componentType {
	case "API":
		return "Primary therapeutic compound (Active Pharmaceutical Ingredient)"
	case "Raw Material", "Excipient", "Intermediate":
		return "Raw material component used in manufacturing process"
	default:
		return "Manufacturing component"
	}
}

// BatchGenealogy returns one row per (process step, component) pair used in
// that step, ordered by step sequence. Components not tied to a step are
// listed first with sequence 0.
func (s *Service) BatchGenealogy(ctx context.Context, batchID string) ([]GenealogyRow, error) {
	b, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, apierr.Internal("load batch: %v", err)
	}
	if b == nil {
		return nil, apierr.NotFound("batch %s not found", batchID)
	}

	var steps []model.ProcessStep
	if err := s.db.WithContext(ctx).
		Where("batch_id = ?", b.ID).
		Order("step_sequence").
		Find(&steps).Error; err != nil {
		return nil, apierr.Internal("load process steps: %v", err)
	}

	var components []model.BatchComponent
	if err := s.db.WithContext(ctx).
		Where("batch_id = ?", b.ID).
		Find(&components).Error; err != nil {
		return nil, apierr.Internal("load components: %v", err)
	}
	byStep := make(map[string][]model.BatchComponent)
	for _, c := range components {
		byStep[c.ProcessStepID] = append(byStep[c.ProcessStepID], c)
	}

	// Deviations linked to components, any status.
	componentIDs := make([]string, len(components))
	for i, c := range components {
		componentIDs[i] = c.ID
	}
	linked := make(map[string]bool)
	if len(componentIDs) > 0 {
		var linkedIDs []string
		err := s.db.WithContext(ctx).
			Model(&model.Deviation{}).
			Where("linked_entity_type = ? AND linked_entity_id IN ?", model.LinkBatchComponent, componentIDs).
			Pluck("linked_entity_id", &linkedIDs).Error
		if err != nil {
			return nil, apierr.Internal("load linked deviations: %v", err)
		}
		for _, id := range linkedIDs {
			linked[id] = true
		}
	}

	samplesByComponent, err := s.componentSampleStatuses(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	rows := []GenealogyRow{}
	appendRows := func(seq int, stepName string, comps []model.BatchComponent) {
		for _, c := range comps {
			rows = append(rows, GenealogyRow{
				StepSequence:     seq,
				StepName:         stepName,
				ComponentID:      c.ID,
				ComponentName:    c.ComponentName,
				ComponentType:    c.ComponentType,
				ComponentBatchID: c.ComponentBatchID,
				SupplierName:     c.SupplierName,
				SupplierLot:      c.SupplierLot,
				Quantity:         c.Quantity,
				Unit:             c.Unit,
				COAReceived:      c.COAReceived,
				Description:      componentDescription(c.ComponentType),
				HasDeviationLink: linked[c.ID],
				Samples:          samplesByComponent[c.ID],
			})
		}
	}

	appendRows(0, "", byStep[""])
	for _, step := range steps {
		appendRows(step.StepSequence, step.StepName, byStep[step.ID])
	}
	return rows, nil
}

// componentSampleStatuses loads the batch's samples grouped by component,
// each with a derived status: Pending with no results, Failed when any
// result is Fail, Passed otherwise.
func (s *Service) componentSampleStatuses(ctx context.Context, batchID string) (map[string][]GenealogySample, error) {
	var samples []model.Sample
	err := s.db.WithContext(ctx).
		Where("batch_id = ? AND batch_component_id <> ''", batchID).
		Find(&samples).Error
	if err != nil {
		return nil, apierr.Internal("load component samples: %v", err)
	}
	if len(samples) == 0 {
		return map[string][]GenealogySample{}, nil
	}

	sampleIDs := make([]string, len(samples))
	for i, smp := range samples {
		sampleIDs[i] = smp.ID
	}
	var results []model.TestResult
	if err := s.db.WithContext(ctx).
		Where("sample_id IN ?", sampleIDs).
		Find(&results).Error; err != nil {
		return nil, apierr.Internal("load test results: %v", err)
	}
	resultsBySample := make(map[string][]model.TestResult)
	for _, tr := range results {
		resultsBySample[tr.SampleID] = append(resultsBySample[tr.SampleID], tr)
	}

	out := make(map[string][]GenealogySample)
	for _, smp := range samples {
		out[smp.BatchComponentID] = append(out[smp.BatchComponentID], GenealogySample{
			SampleID:   smp.SampleID,
			SampleType: smp.SampleType,
			Status:     deriveSampleStatus(resultsBySample[smp.ID]),
		})
	}
	return out, nil
}

func deriveSampleStatus(results []model.TestResult) string {
	if len(results) == 0 {
		return "Pending"
	}
	for _, tr := range results {
		if tr.Result == model.ResultFail {
			return "Failed"
		}
	}
	return "Passed"
}
