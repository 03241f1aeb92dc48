package reporting

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/auth"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// SummaryParams carries the query options for CustomerBatchSummary.
type SummaryParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

// sortColumns whitelists sortable fields.
var sortColumns = map[string]string{
	"api_batch_id": "api_batch_id",
	"status":       "status",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

// CustomerBatchSummary returns the paginated, scope-restricted batch summary
// for one customer. The summary counts cover the entire filtered set, not
// just the current page.
func (s *Service) CustomerBatchSummary(ctx context.Context, customerID string, params SummaryParams, scope auth.Scope) (*CustomerBatchSummary, error) {
	var customer model.Customer
	err := s.db.WithContext(ctx).Where("id = ?", customerID).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("customer %s not found", customerID)
		}
		return nil, apierr.Internal("load customer: %v", err)
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	result := &CustomerBatchSummary{
		Customer: &customer,
		Batches:  []BatchSummaryRow{},
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
		},
	}

	// An empty restricted scope is a valid empty result, not an error.
	if !scope.Unrestricted && len(scope.BatchIDs) == 0 {
		return result, nil
	}

	q := s.db.WithContext(ctx).Model(&model.Batch{}).Where("customer_id = ?", customerID)
	if !scope.Unrestricted {
		q = q.Where("id IN ?", scope.IDs())
	}
	if params.Search != "" {
		q = q.Where("LOWER(api_batch_id) LIKE ?", "%"+strings.ToLower(params.Search)+"%")
	}

	column, ok := sortColumns[params.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if strings.EqualFold(params.SortOrder, "desc") {
		direction = "DESC"
	}

	var filtered []model.Batch
	if err := q.Order(column + " " + direction).Find(&filtered).Error; err != nil {
		return nil, apierr.Internal("list batches: %v", err)
	}

	// Bucket the whole filtered set before slicing the page.
	for _, b := range filtered {
		result.Summary.bucket(b.Status)
	}

	total := int64(len(filtered))
	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	result.Pagination.TotalRecords = total
	result.Pagination.TotalPages = totalPages
	result.Pagination.HasNext = params.Page < totalPages
	result.Pagination.HasPrev = params.Page > 1 && total > 0

	start := (params.Page - 1) * params.Limit
	if start >= len(filtered) {
		return result, nil
	}
	end := start + params.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page := filtered[start:end]

	rows, err := s.buildSummaryRows(ctx, page)
	if err != nil {
		return nil, err
	}
	result.Batches = rows
	return result, nil
}

// buildSummaryRows resolves per-batch sample, deviation, and progress counts
// for the page with grouped queries instead of per-row lookups.
func (s *Service) buildSummaryRows(ctx context.Context, page []model.Batch) ([]BatchSummaryRow, error) {
	ids := make([]string, len(page))
	for i, b := range page {
		ids[i] = b.ID
	}

	type countRow struct {
		BatchID string
		N       int64
	}

	sampleCounts := make(map[string]int64)
	var samples []countRow
	err := s.db.WithContext(ctx).Model(&model.Sample{}).
		Select("batch_id, COUNT(*) AS n").
		Where("batch_id IN ?", ids).
		Group("batch_id").
		Scan(&samples).Error
	if err != nil {
		return nil, apierr.Internal("count samples: %v", err)
	}
	for _, c := range samples {
		sampleCounts[c.BatchID] = c.N
	}

	type devRow struct {
		BatchID  string
		Severity string
		N        int64
	}
	devCounts := make(map[string]DeviationCounts)
	var devs []devRow
	err = s.db.WithContext(ctx).Model(&model.Deviation{}).
		Select("batch_id, severity, COUNT(*) AS n").
		Where("batch_id IN ?", ids).
		Group("batch_id, severity").
		Scan(&devs).Error
	if err != nil {
		return nil, apierr.Internal("count deviations: %v", err)
	}
	for _, d := range devs {
		c := devCounts[d.BatchID]
		c.Total += d.N
		if d.Severity == model.SeverityCritical {
			c.Critical += d.N
		} else {
			c.NonCritical += d.N
		}
		devCounts[d.BatchID] = c
	}

	type stepRow struct {
		BatchID string
		Total   int64
		Done    int64
	}
	stepCounts := make(map[string]stepRow)
	var steps []stepRow
	err = s.db.WithContext(ctx).Model(&model.ProcessStep{}).
		Select("batch_id, COUNT(*) AS total, SUM(CASE WHEN ended_at IS NOT NULL THEN 1 ELSE 0 END) AS done").
		Where("batch_id IN ?", ids).
		Group("batch_id").
		Scan(&steps).Error
	if err != nil {
		return nil, apierr.Internal("count process steps: %v", err)
	}
	for _, st := range steps {
		stepCounts[st.BatchID] = st
	}

	rows := make([]BatchSummaryRow, len(page))
	for i, b := range page {
		label, color := displayStatus(b.Status)
		rows[i] = BatchSummaryRow{
			ID:            b.ID,
			APIBatchID:    b.APIBatchID,
			ProductName:   b.ProductName,
			Status:        string(b.Status),
			DisplayStatus: label,
			StatusColor:   color,
			Progress:      progressPercent(stepCounts[b.ID].Done, stepCounts[b.ID].Total),
			Samples:       sampleCounts[b.ID],
			Deviations:    devCounts[b.ID],
			CreatedAt:     b.CreatedAt,
			UpdatedAt:     b.UpdatedAt,
		}
	}
	return rows, nil
}

// progressPercent is completed/total steps as a rounded percentage, 0 when
// the batch has no steps.
func progressPercent(done, total int64) int {
	if total == 0 {
		return 0
	}
	return int((float64(done)/float64(total))*100 + 0.5)
}
