package reporting

import (
	"context"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// BatchDetail returns the full nested batch record with derived counts.
func (s *Service) BatchDetail(ctx context.Context, batchID string) (*BatchDetail, error) {
	b, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, apierr.Internal("load batch: %v", err)
	}
	if b == nil {
		return nil, apierr.NotFound("batch %s not found", batchID)
	}

	detail := &BatchDetail{Batch: *b}

	var customer model.Customer
	if err := s.db.WithContext(ctx).Where("id = ?", b.CustomerID).First(&customer).Error; err == nil {
		detail.Customer = &customer
	}
	var project model.Project
	if err := s.db.WithContext(ctx).Where("id = ?", b.ProjectID).First(&project).Error; err == nil {
		detail.Project = &project
	}

	if err := s.db.WithContext(ctx).
		Where("batch_id = ?", b.ID).
		Order("step_sequence").
		Find(&detail.ProcessSteps).Error; err != nil {
		return nil, apierr.Internal("load process steps: %v", err)
	}

	if err := s.db.WithContext(ctx).
		Where("batch_id = ?", b.ID).
		Find(&detail.Components).Error; err != nil {
		return nil, apierr.Internal("load components: %v", err)
	}

	var samples []model.Sample
	if err := s.db.WithContext(ctx).
		Where("batch_id = ?", b.ID).
		Order("collected_at").
		Find(&samples).Error; err != nil {
		return nil, apierr.Internal("load samples: %v", err)
	}
	sampleIDs := make([]string, len(samples))
	for i, smp := range samples {
		sampleIDs[i] = smp.ID
	}
	resultsBySample := make(map[string][]model.TestResult)
	if len(sampleIDs) > 0 {
		var results []model.TestResult
		if err := s.db.WithContext(ctx).
			Where("sample_id IN ?", sampleIDs).
			Find(&results).Error; err != nil {
			return nil, apierr.Internal("load test results: %v", err)
		}
		for _, tr := range results {
			resultsBySample[tr.SampleID] = append(resultsBySample[tr.SampleID], tr)
		}
	}
	detail.Samples = make([]SampleWithResults, len(samples))
	for i, smp := range samples {
		detail.Samples[i] = SampleWithResults{Sample: smp, TestResults: resultsBySample[smp.ID]}
	}

	if err := s.db.WithContext(ctx).
		Where("batch_id = ?", b.ID).
		Order("raised_at").
		Find(&detail.Deviations).Error; err != nil {
		return nil, apierr.Internal("load deviations: %v", err)
	}

	if err := s.db.WithContext(ctx).
		Where("batch_id = ?", b.ID).
		Order("occurred_at").
		Find(&detail.EquipmentEvents).Error; err != nil {
		return nil, apierr.Internal("load equipment events: %v", err)
	}

	detail.TotalProcessSteps = len(detail.ProcessSteps)
	detail.TotalComponents = len(detail.Components)
	detail.TotalSamples = len(detail.Samples)
	detail.TotalDeviations = len(detail.Deviations)
	for _, d := range detail.Deviations {
		if d.Status == model.DeviationOpen || d.Status == model.DeviationInProgress {
			detail.OpenDeviations++
		}
	}

	return detail, nil
}
