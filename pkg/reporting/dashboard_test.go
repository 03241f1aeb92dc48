package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmatrace/batch-registry/pkg/auth"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

func TestDashboardSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.db)

	acme := f.customer("Acme Pharma")
	beta := f.customer("Beta Biologics")
	project := f.project(acme.ID, "Oncology API")

	f.batch(acme.ID, project.ID, "B-1", model.BatchInProcess)
	f.batch(acme.ID, project.ID, "B-2", model.BatchOnHold)
	f.batch(beta.ID, project.ID, "B-3", model.BatchCompleted)
	released := f.batch(acme.ID, project.ID, "B-4", model.BatchReleased)

	now := time.Now()
	require.NoError(t, f.db.Model(&model.Batch{}).Where("id = ?", released.ID).
		Update("released_at", now).Error)

	older := f.batch(acme.ID, project.ID, "B-5", model.BatchReleased)
	require.NoError(t, f.db.Model(&model.Batch{}).Where("id = ?", older.ID).
		Update("released_at", now.Add(-48*time.Hour)).Error)

	open := f.batch(acme.ID, project.ID, "B-6", model.BatchInProcess)
	f.deviation(open.ID, model.SeverityMajor, model.DeviationOpen, "", "")
	f.deviation(open.ID, model.SeverityMinor, model.DeviationInProgress, "", "")
	f.deviation(open.ID, model.SeverityMinor, model.DeviationClosed, "", "")

	f.sample(open.ID, "")
	f.sample(open.ID, "")

	got, err := svc.DashboardSummary(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, got.ActiveCustomers)
	assert.EqualValues(t, 3, got.ActiveBatches, "In-Process and On-Hold count as active")
	assert.EqualValues(t, 2, got.OpenDeviations, "closed deviations are excluded")
	assert.EqualValues(t, 2, got.LabSamples)
	assert.EqualValues(t, 1, got.ReleasedToday, "yesterday's release is excluded")
}

// The released-today window opens at local midnight, not UTC midnight.
func TestDashboardSummary_ReleasedTodayLocalMidnight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.db)

	acme := f.customer("Acme Pharma")
	project := f.project(acme.ID, "Oncology API")

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	before := f.batch(acme.ID, project.ID, "B-1", model.BatchReleased)
	require.NoError(t, f.db.Model(&model.Batch{}).Where("id = ?", before.ID).
		Update("released_at", midnight.Add(-30*time.Minute)).Error)

	after := f.batch(acme.ID, project.ID, "B-2", model.BatchReleased)
	require.NoError(t, f.db.Model(&model.Batch{}).Where("id = ?", after.ID).
		Update("released_at", midnight.Add(30*time.Minute)).Error)

	got, err := svc.DashboardSummary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ReleasedToday)
}

func TestCustomerBatchDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.db)

	acme := f.customer("Acme Pharma")
	beta := f.customer("Beta Biologics")
	idle := f.customer("Idle Inc")
	acmeProject := f.project(acme.ID, "Oncology API")
	betaProject := f.project(beta.ID, "Vaccines")

	f.batch(acme.ID, acmeProject.ID, "B-1", model.BatchInProcess)
	f.batch(acme.ID, acmeProject.ID, "B-2", model.BatchReleased)
	scoped := f.batch(beta.ID, betaProject.ID, "B-3", model.BatchOnHold)
	_ = idle

	t.Run("admin sees every customer with batches", func(t *testing.T) {
		rows, err := svc.CustomerBatchDashboard(ctx, auth.Scope{Unrestricted: true})
		require.NoError(t, err)
		require.Len(t, rows, 2, "customers without batches are skipped")

		// Rows follow customer name order.
		assert.Equal(t, "Acme Pharma", rows[0].CustomerName)
		assert.Equal(t, 2, rows[0].TotalBatches)
		assert.Equal(t, 1, rows[0].Counts.InProgress)
		assert.Equal(t, 1, rows[0].Counts.Released)
		assert.NotEqual(t, "never", rows[0].LastActivity)

		assert.Equal(t, "Beta Biologics", rows[1].CustomerName)
		assert.Equal(t, 1, rows[1].Counts.QAHold)
	})

	t.Run("restricted scope filters the batch set", func(t *testing.T) {
		scope := auth.Scope{BatchIDs: map[string]struct{}{scoped.ID: {}}}
		rows, err := svc.CustomerBatchDashboard(ctx, scope)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Beta Biologics", rows[0].CustomerName)
	})

	t.Run("empty scope yields an empty dashboard", func(t *testing.T) {
		rows, err := svc.CustomerBatchDashboard(ctx, auth.Scope{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestHumanizeSince(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "never", humanizeSince(time.Time{}, now))
	assert.Equal(t, "just now", humanizeSince(now.Add(-30*time.Second), now))
	assert.Equal(t, "5 minute(s) ago", humanizeSince(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3 hour(s) ago", humanizeSince(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2 day(s) ago", humanizeSince(now.Add(-49*time.Hour), now))
}
