package reporting

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/auth"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

func unrestricted() auth.Scope {
	return auth.Scope{Unrestricted: true}
}

func TestCustomerBatchSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.db)

	acme := f.customer("Acme Pharma")
	project := f.project(acme.ID, "Oncology API")

	// 12 batches: 5 In-Process, 3 On-Hold, 2 Completed, 1 Released, 1 Not Started.
	statuses := []model.BatchStatus{
		model.BatchInProcess, model.BatchInProcess, model.BatchInProcess, model.BatchInProcess, model.BatchInProcess,
		model.BatchOnHold, model.BatchOnHold, model.BatchOnHold,
		model.BatchCompleted, model.BatchCompleted,
		model.BatchReleased,
		model.BatchNotStarted,
	}
	for i, status := range statuses {
		f.batch(acme.ID, project.ID, fmt.Sprintf("B-%03d", i), status)
	}

	t.Run("summary counts cover the whole set, page covers a slice", func(t *testing.T) {
		got, err := svc.CustomerBatchSummary(ctx, acme.ID, SummaryParams{Page: 1, Limit: 10}, unrestricted())
		require.NoError(t, err)

		assert.Equal(t, 5, got.Summary.InProgress)
		assert.Equal(t, 3, got.Summary.QAHold)
		assert.Equal(t, 2, got.Summary.Completed)
		assert.Equal(t, 1, got.Summary.Released)
		assert.Equal(t, 1, got.Summary.NotStarted)

		sum := got.Summary.InProgress + got.Summary.QAHold + got.Summary.Completed +
			got.Summary.Released + got.Summary.NotStarted
		assert.EqualValues(t, got.Pagination.TotalRecords, sum)

		assert.Len(t, got.Batches, 10)
		assert.Equal(t, 2, got.Pagination.TotalPages)
		assert.True(t, got.Pagination.HasNext)
		assert.False(t, got.Pagination.HasPrev)
	})

	t.Run("second page", func(t *testing.T) {
		got, err := svc.CustomerBatchSummary(ctx, acme.ID, SummaryParams{Page: 2, Limit: 10}, unrestricted())
		require.NoError(t, err)
		assert.Len(t, got.Batches, 2)
		assert.False(t, got.Pagination.HasNext)
		assert.True(t, got.Pagination.HasPrev)
	})

	t.Run("page past the end is empty, not an error", func(t *testing.T) {
		got, err := svc.CustomerBatchSummary(ctx, acme.ID, SummaryParams{Page: 9, Limit: 10}, unrestricted())
		require.NoError(t, err)
		assert.Empty(t, got.Batches)
		assert.EqualValues(t, 12, got.Pagination.TotalRecords)
	})

	t.Run("search filters by batch identifier, case-insensitive", func(t *testing.T) {
		got, err := svc.CustomerBatchSummary(ctx, acme.ID, SummaryParams{Search: "b-001"}, unrestricted())
		require.NoError(t, err)
		require.Len(t, got.Batches, 1)
		assert.Equal(t, "B-001", got.Batches[0].APIBatchID)
		assert.EqualValues(t, 1, got.Pagination.TotalRecords)
	})

	t.Run("sort by api_batch_id descending", func(t *testing.T) {
		got, err := svc.CustomerBatchSummary(ctx, acme.ID,
			SummaryParams{Limit: 3, SortBy: "api_batch_id", SortOrder: "desc"}, unrestricted())
		require.NoError(t, err)
		require.Len(t, got.Batches, 3)
		assert.Equal(t, "B-011", got.Batches[0].APIBatchID)
		assert.Equal(t, "B-010", got.Batches[1].APIBatchID)
	})

	t.Run("unknown sort column falls back to created_at", func(t *testing.T) {
		_, err := svc.CustomerBatchSummary(ctx, acme.ID,
			SummaryParams{SortBy: "password_hash"}, unrestricted())
		require.NoError(t, err)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := svc.CustomerBatchSummary(ctx, "nope", SummaryParams{}, unrestricted())
		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, apierr.CodeNotFound, apiErr.Code)
	})
}

func TestCustomerBatchSummary_Scoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.db)

	acme := f.customer("Acme Pharma")
	project := f.project(acme.ID, "Oncology API")
	visible := f.batch(acme.ID, project.ID, "B-100", model.BatchInProcess)
	f.batch(acme.ID, project.ID, "B-101", model.BatchInProcess)

	t.Run("restricted scope sees only its batches", func(t *testing.T) {
		scope := auth.Scope{BatchIDs: map[string]struct{}{visible.ID: {}}}
		got, err := svc.CustomerBatchSummary(ctx, acme.ID, SummaryParams{}, scope)
		require.NoError(t, err)
		require.Len(t, got.Batches, 1)
		assert.Equal(t, "B-100", got.Batches[0].APIBatchID)
		assert.Equal(t, 1, got.Summary.InProgress)
	})

	t.Run("empty restricted scope is an empty result", func(t *testing.T) {
		got, err := svc.CustomerBatchSummary(ctx, acme.ID, SummaryParams{}, auth.Scope{})
		require.NoError(t, err)
		assert.Empty(t, got.Batches)
		assert.EqualValues(t, 0, got.Pagination.TotalRecords)
	})
}

func TestCustomerBatchSummary_RowAggregates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.db)

	acme := f.customer("Acme Pharma")
	project := f.project(acme.ID, "Oncology API")
	b := f.batch(acme.ID, project.ID, "B-200", model.BatchInProcess)

	// 3 of 4 steps finished.
	f.step(b.ID, 1, "Dispensing", "", true)
	f.step(b.ID, 2, "Granulation", "", true)
	f.step(b.ID, 3, "Compression", "", true)
	f.step(b.ID, 4, "Coating", "", false)

	s1 := f.sample(b.ID, "")
	f.sample(b.ID, "")
	f.result(s1.ID, model.ResultPass)

	f.deviation(b.ID, model.SeverityCritical, model.DeviationOpen, "", "")
	f.deviation(b.ID, model.SeverityMinor, model.DeviationClosed, "", "")
	f.deviation(b.ID, model.SeverityMajor, model.DeviationOpen, "", "")

	got, err := svc.CustomerBatchSummary(ctx, acme.ID, SummaryParams{}, unrestricted())
	require.NoError(t, err)
	require.Len(t, got.Batches, 1)
	row := got.Batches[0]

	assert.Equal(t, 75, row.Progress)
	assert.EqualValues(t, 2, row.Samples)
	assert.EqualValues(t, 3, row.Deviations.Total)
	assert.EqualValues(t, 1, row.Deviations.Critical)
	assert.EqualValues(t, 2, row.Deviations.NonCritical)
	assert.Equal(t, "In Progress", row.DisplayStatus)
	assert.Equal(t, "yellow", row.StatusColor)
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0, progressPercent(0, 0), "no steps reads as zero progress")
	assert.Equal(t, 0, progressPercent(0, 5))
	assert.Equal(t, 50, progressPercent(1, 2))
	assert.Equal(t, 33, progressPercent(1, 3))
	assert.Equal(t, 67, progressPercent(2, 3))
	assert.Equal(t, 100, progressPercent(4, 4))
}
